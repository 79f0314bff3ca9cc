package types

import "time"

// ChatResponse is returned by POST /api/chat.
type ChatResponse struct {
	// Response is the assistant's reply.
	Response string `json:"response"`

	// ConversationID identifies the conversation, minted when the request
	// carried none.
	ConversationID string `json:"conversation_id"`

	// TokensUsed is the total token count reported by the provider.
	TokensUsed int `json:"tokens_used"`

	// Model is the model that produced the reply.
	Model string `json:"model"`

	// CreatedAt is when the reply was produced.
	CreatedAt time.Time `json:"created_at"`
}

// ContentEvent is the payload of one SSE fragment on /api/chat/stream.
type ContentEvent struct {
	Content string `json:"content"`
}

// ErrorEvent is the payload of the SSE event that ends a failed stream.
type ErrorEvent struct {
	Error ErrorDetail `json:"error"`
}

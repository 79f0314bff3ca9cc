package types

// ChatRequest is the body of POST /api/chat and POST /api/chat/stream.
type ChatRequest struct {
	// Message is the user's text. Required, 1 to MaxMessageLength characters.
	Message string `json:"message"`

	// ConversationID continues an existing conversation. Omit to start a
	// new one.
	ConversationID string `json:"conversation_id,omitempty"`

	// SystemPrompt replaces the configured system prompt for this turn.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Temperature controls randomness in the response (0.0 to 2.0).
	// Optional, defaults to the configured provider temperature.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens bounds the reply length. Optional.
	MaxTokens *int `json:"max_tokens,omitempty"`
}

// DocumentRequest is the body of POST /api/analysis/document.
type DocumentRequest struct {
	Text string `json:"text"`
}

// ClassifyRequest is the body of POST /api/analysis/classify.
type ClassifyRequest struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories"`
}

// BatchRequest is the body of POST /api/analysis/batch.
type BatchRequest struct {
	Texts []string `json:"texts"`

	// Operation is "summarize" or "sentiment".
	// Default: "summarize"
	Operation string `json:"operation,omitempty"`
}

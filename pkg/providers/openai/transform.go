package openai

import (
	"fmt"

	"mercator-hq/chatgate/pkg/providers"
)

// OpenAI API request/response types

// ChatRequest is the body of POST /chat/completions.
type ChatRequest struct {
	Model         string         `json:"model"`
	Messages      []ChatMessage  `json:"messages"`
	Temperature   *float64       `json:"temperature,omitempty"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
	User          string         `json:"user,omitempty"`
	N             int            `json:"n,omitempty"`
}

// StreamOptions asks the server to append a usage-only chunk to the stream.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatMessage is one message in OpenAI format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the non-streaming reply.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// ChatChoice is one choice of a non-streaming reply.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage is OpenAI's token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamResponse is one SSE data payload of a streaming reply.
type StreamResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
	Error   *APIError      `json:"error,omitempty"`
}

// StreamChoice is one choice of a streaming chunk.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// StreamDelta is the incremental content of a streaming chunk.
type StreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// APIError is the error object OpenAI embeds in error replies and, rarely,
// in the middle of a stream.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

func transformRequest(req *providers.CompletionRequest, stream bool) *ChatRequest {
	temperature := req.Temperature
	out := &ChatRequest{
		Model:       req.Model,
		Messages:    make([]ChatMessage, len(req.Messages)),
		Temperature: &temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
		User:        req.User,
		N:           1,
	}
	if stream {
		out.StreamOptions = &StreamOptions{IncludeUsage: true}
	}

	for i, msg := range req.Messages {
		out.Messages[i] = ChatMessage{Role: msg.Role, Content: msg.Content}
	}
	return out
}

func transformResponse(resp *ChatResponse) (*providers.CompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	choice := resp.Choices[0]

	return &providers.CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: normalizeFinishReason(choice.FinishReason),
		Usage:        transformUsage(resp.Usage),
		Created:      resp.Created,
	}, nil
}

// transformStreamChunk converts one SSE payload. The trailing usage chunk has
// no choices and yields a chunk with only Usage set.
func transformStreamChunk(chunk *StreamResponse) *providers.StreamChunk {
	out := &providers.StreamChunk{
		ID:      chunk.ID,
		Model:   chunk.Model,
		Created: chunk.Created,
	}

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		out.Delta = choice.Delta.Content
		if choice.FinishReason != nil {
			out.FinishReason = normalizeFinishReason(*choice.FinishReason)
		}
	}

	if chunk.Usage != nil {
		usage := transformUsage(*chunk.Usage)
		out.Usage = &usage
	}
	return out
}

func transformUsage(u Usage) providers.TokenUsage {
	return providers.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "content_filter":
		return providers.FinishReasonContentFilter
	default:
		return reason
	}
}

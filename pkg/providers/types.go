package providers

import "time"

// Message is one entry of the prompt sent upstream.
type Message struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// TokenUsage reports token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is the provider-agnostic request.
type CompletionRequest struct {
	// Model is the upstream model name.
	Model string `json:"model"`

	// Messages is the full prompt, oldest first.
	Messages []Message `json:"messages"`

	// Temperature controls sampling. Zero is a valid, deterministic setting
	// and is always sent upstream.
	Temperature float64 `json:"temperature"`

	// MaxTokens bounds the reply length. Zero leaves the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Stream selects the streaming API.
	Stream bool `json:"stream,omitempty"`

	// User is an opaque end-user identifier forwarded to the provider.
	User string `json:"user,omitempty"`
}

// CompletionResponse is the provider-agnostic non-streaming reply.
type CompletionResponse struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	FinishReason string     `json:"finish_reason"`
	Usage        TokenUsage `json:"usage"`
	Created      int64      `json:"created"`
}

// StreamChunk is one increment of a streaming reply.
type StreamChunk struct {
	ID    string `json:"id"`
	Model string `json:"model"`

	// Delta is the text generated since the previous chunk. It may be empty
	// for chunks that only carry metadata.
	Delta string `json:"delta"`

	// FinishReason is set on the last content chunk.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is set when the provider reports token usage for the stream.
	Usage *TokenUsage `json:"usage,omitempty"`

	// Error is set on a terminal chunk when the stream failed.
	Error error `json:"-"`

	Created int64 `json:"created"`
}

// ProviderHealth tracks the health of a provider.
type ProviderHealth struct {
	IsHealthy             bool
	LastCheck             time.Time
	LastError             error
	ConsecutiveFailures   int
	LastSuccessfulRequest time.Time
	TotalRequests         int64
	FailedRequests        int64
}

// ProviderConfig holds the settings shared by all adapters.
type ProviderConfig struct {
	// Name identifies the provider in logs and errors.
	Name string

	// Type selects the adapter: "openai", "anthropic" or "generic".
	Type string

	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string

	// APIKey authenticates against the upstream.
	APIKey string

	// Timeout bounds a non-streaming request including retries.
	Timeout time.Duration

	// MaxRetries is the number of retries for transient failures.
	MaxRetries int

	// RetryBackoff is the base delay between retries; it doubles per attempt.
	RetryBackoff time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Normalized finish reasons.
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)

// Provider types understood by the factory.
const (
	TypeOpenAI    = "openai"
	TypeAnthropic = "anthropic"
	TypeGeneric   = "generic"
)

package providers

import "context"

// Provider is the interface every upstream model adapter implements.
//
// Implementations must be safe for concurrent use. StreamCompletion returns a
// channel that is closed when the stream ends; a failure is reported as a
// final chunk with Error set. Cancelling ctx must stop the producer promptly.
type Provider interface {
	// SendCompletion sends a completion request and waits for the whole reply.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// StreamCompletion sends a completion request and yields the reply as it
	// is generated.
	StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error)

	// HealthCheck verifies the upstream is reachable.
	HealthCheck(ctx context.Context) error

	// GetName returns the configured provider name.
	GetName() string

	// GetType returns the provider type (openai, anthropic, generic).
	GetType() string

	// IsHealthy reports the last known health state.
	IsHealthy() bool

	// GetHealth returns detailed health information.
	GetHealth() ProviderHealth

	// Close releases idle connections.
	Close() error
}

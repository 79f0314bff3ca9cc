// Package providers is the abstraction over the upstream model.
//
// # Overview
//
// The gateway talks to exactly one upstream model through the Provider
// interface. Adapters translate the provider-agnostic CompletionRequest into
// the upstream wire format and back:
//
//   - openai: OpenAI chat completions (and any compatible server via "generic")
//   - anthropic: Anthropic Messages API through the official SDK
//
// # Streaming
//
// StreamCompletion returns a channel of *StreamChunk. The channel is closed
// when the reply is complete. A failure is delivered as a final chunk with
// Error set, so consumers only need a single range loop:
//
//	chunks, err := provider.StreamCompletion(ctx, req)
//	if err != nil {
//	    return err
//	}
//	for chunk := range chunks {
//	    if chunk.Error != nil {
//	        return chunk.Error
//	    }
//	    fmt.Print(chunk.Delta)
//	}
//
// Cancelling ctx stops the producer goroutine and closes the channel.
//
// # Errors
//
// Adapters return typed errors (AuthError, RateLimitError, TimeoutError,
// ParseError, StreamError, ProviderError) so callers can map them onto their
// own taxonomy with errors.As.
package providers

package providers

import (
	"testing"
	"time"

	"mercator-hq/chatgate/pkg/providers"
)

// TestConfig returns a provider configuration suitable for tests: short
// timeouts and near-instant retries.
func TestConfig(name, providerType string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		Type:                providerType,
		BaseURL:             "http://localhost:8080",
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		MaxRetries:          2,
		RetryBackoff:        5 * time.Millisecond,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestConfigWithURL returns a test config with a specific base URL.
func TestConfigWithURL(name, providerType, baseURL string) providers.ProviderConfig {
	config := TestConfig(name, providerType)
	config.BaseURL = baseURL
	return config
}

// TestCompletionRequest creates a single-message request.
func TestCompletionRequest(model, content string) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model: model,
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: content},
		},
		Temperature: 0.7,
		MaxTokens:   100,
	}
}

// CollectStreamChunks drains chunks, stopping at the first error chunk.
func CollectStreamChunks(t *testing.T, chunks <-chan *providers.StreamChunk) ([]*providers.StreamChunk, error) {
	t.Helper()

	var collected []*providers.StreamChunk
	for chunk := range chunks {
		if chunk.Error != nil {
			return collected, chunk.Error
		}
		collected = append(collected, chunk)
	}
	return collected, nil
}

// ConcatenateChunks joins the deltas of chunks.
func ConcatenateChunks(chunks []*providers.StreamChunk) string {
	var result string
	for _, chunk := range chunks {
		result += chunk.Delta
	}
	return result
}

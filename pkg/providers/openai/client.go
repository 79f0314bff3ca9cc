package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mercator-hq/chatgate/pkg/providers"
)

// DefaultBaseURL is used when the configuration leaves BaseURL empty.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider implements providers.Provider for OpenAI-compatible chat APIs.
type Provider struct {
	*providers.HTTPProvider

	baseURL string
}

// NewProvider creates an OpenAI provider. An API key is required.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	return newProvider(config, true)
}

// NewCompatibleProvider creates a provider for a self-hosted server that
// speaks the OpenAI API (vLLM, Ollama, LocalAI). The API key is optional and
// BaseURL is required.
func NewCompatibleProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base URL is required for OpenAI-compatible providers",
		}
	}
	return newProvider(config, false)
}

func newProvider(config providers.ProviderConfig, requireAPIKey bool) (*Provider, error) {
	if requireAPIKey && config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	return &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
	}, nil
}

// SendCompletion sends a non-streaming chat completion request.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var resp ChatResponse
	if err := p.DoJSONRequest(ctx, http.MethodPost, p.baseURL+"/chat/completions", transformRequest(req, false), &resp, p.headers()); err != nil {
		return nil, err
	}

	result, err := transformResponse(&resp)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.GetName(), Cause: err}
	}
	return result, nil
}

// StreamCompletion sends a streaming chat completion request. The returned
// channel is unbuffered and is closed when the stream ends, fails or ctx is
// cancelled.
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(transformRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := p.headers()
	headers["Accept"] = "text/event-stream"

	resp, err := p.DoRequest(ctx, http.MethodPost, p.baseURL+"/chat/completions", body, headers)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *providers.StreamChunk)
	go p.pump(ctx, newStreamReader(p.GetName(), resp.Body), chunks)
	return chunks, nil
}

// pump forwards chunks from reader to out until the stream ends.
func (p *Provider) pump(ctx context.Context, reader *streamReader, out chan<- *providers.StreamChunk) {
	defer close(out)
	defer reader.Close()

	send := func(chunk *providers.StreamChunk) bool {
		select {
		case out <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		chunk, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.Record(err)
			send(&providers.StreamChunk{Error: err})
			return
		}
		if !send(chunk) {
			return
		}
	}
}

// HealthCheck lists models, which is cheap and requires valid credentials.
func (p *Provider) HealthCheck(ctx context.Context) error {
	resp, err := p.DoRequest(ctx, http.MethodGet, p.baseURL+"/models", nil, p.headers())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p *Provider) headers() map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	if key := p.GetConfig().APIKey; key != "" {
		headers["Authorization"] = "Bearer " + key
	}
	return headers
}

func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{Field: "request", Message: "request is nil"}
	}
	if req.Model == "" {
		return &providers.ValidationError{Field: "model", Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return &providers.ValidationError{Field: "messages", Message: "at least one message is required"}
	}
	return nil
}

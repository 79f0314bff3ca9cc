package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"mercator-hq/chatgate/pkg/providers"
)

// Provider implements providers.Provider on top of the Anthropic Go SDK.
type Provider struct {
	*providers.HealthTracker

	config providers.ProviderConfig
	client sdk.Client
}

// NewProvider creates an Anthropic provider. An API key is required.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}
	if config.Name == "" {
		config.Name = providers.TypeAnthropic
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(config.MaxRetries),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	slog.Info("anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return &Provider{
		HealthTracker: providers.NewHealthTracker(config.Name),
		config:        config,
		client:        sdk.NewClient(opts...),
	}, nil
}

// GetName returns the provider's configured name.
func (p *Provider) GetName() string {
	return p.config.Name
}

// GetType returns "anthropic".
func (p *Provider) GetType() string {
	return providers.TypeAnthropic
}

// SendCompletion sends a non-streaming Messages request.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	msg, err := p.client.Messages.New(ctx, buildParams(req))
	if err != nil {
		err = p.translateError(ctx, err)
		p.Record(err)
		return nil, err
	}
	p.Record(nil)

	return transformResponse(msg), nil
}

// StreamCompletion sends a streaming Messages request. Text deltas are
// forwarded as they arrive; the final chunk carries the stop reason and usage.
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	stream := p.client.Messages.NewStreaming(ctx, buildParams(req))
	chunks := make(chan *providers.StreamChunk)

	go func() {
		defer close(chunks)
		defer stream.Close()

		send := func(chunk *providers.StreamChunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var acc sdk.Message
		for stream.Next() {
			event := stream.Current()
			_ = acc.Accumulate(event)

			if event.Type == "content_block_delta" && event.Delta.Type == "text_delta" {
				if !send(&providers.StreamChunk{ID: acc.ID, Model: string(acc.Model), Delta: event.Delta.Text}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() != nil {
				return
			}
			err = p.translateError(ctx, err)
			p.Record(err)
			send(&providers.StreamChunk{Error: err})
			return
		}
		p.Record(nil)

		final := transformResponse(&acc)
		send(&providers.StreamChunk{
			ID:           final.ID,
			Model:        final.Model,
			FinishReason: final.FinishReason,
			Usage:        &final.Usage,
		})
	}()

	return chunks, nil
}

// HealthCheck lists models, which requires valid credentials.
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.Models.List(ctx, sdk.ModelListParams{})
	if err != nil {
		err = p.translateError(ctx, err)
	}
	p.Record(err)
	return err
}

// Close is a no-op; the SDK client holds no resources of its own.
func (p *Provider) Close() error {
	return nil
}

// translateError maps SDK errors onto the providers error types.
func (p *Provider) translateError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &providers.TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout, Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return &providers.StreamError{Provider: p.config.Name, Message: "request failed", Cause: err}
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &providers.AuthError{Provider: p.config.Name, Message: apiErr.Error()}
	case http.StatusTooManyRequests:
		return &providers.RateLimitError{Provider: p.config.Name, Message: apiErr.Error()}
	default:
		return &providers.ProviderError{
			Provider:   p.config.Name,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Error(),
			Cause:      err,
		}
	}
}

func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{Field: "request", Message: "request is nil"}
	}
	if req.Model == "" {
		return &providers.ValidationError{Field: "model", Message: "model is required"}
	}
	for _, m := range req.Messages {
		if m.Role != providers.RoleSystem {
			return nil
		}
	}
	return &providers.ValidationError{Field: "messages", Message: "at least one user message is required"}
}

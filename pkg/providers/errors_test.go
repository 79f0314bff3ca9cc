package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "provider error with status",
			err:  &ProviderError{Provider: "openai", StatusCode: 502, Message: "bad gateway"},
			want: `provider "openai" error (status 502): bad gateway`,
		},
		{
			name: "rate limit with retry",
			err:  &RateLimitError{Provider: "openai", RetryAfter: 3 * time.Second, Message: "slow down"},
			want: `provider "openai" rate limit exceeded (retry after 3s): slow down`,
		},
		{
			name: "timeout",
			err:  &TimeoutError{Provider: "anthropic", Timeout: time.Minute},
			want: `provider "anthropic" request timeout after 1m0s`,
		},
		{
			name: "stream error with cause",
			err:  &StreamError{Provider: "openai", Message: "connection reset", Cause: errors.New("EOF")},
			want: `provider "openai" stream error: connection reset: EOF`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := fmt.Errorf("outer: %w", &ParseError{Provider: "openai", Cause: cause})

	if !errors.Is(wrapped, cause) {
		t.Error("expected ParseError to unwrap to its cause")
	}

	timeout := &TimeoutError{Provider: "openai", Cause: context.DeadlineExceeded}
	if !errors.Is(timeout, context.DeadlineExceeded) {
		t.Error("expected TimeoutError to unwrap to context.DeadlineExceeded")
	}
	if !IsTimeout(fmt.Errorf("wrapped: %w", timeout)) {
		t.Error("expected IsTimeout to see through wrapping")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&RateLimitError{Provider: "p"}, true},
		{&TimeoutError{Provider: "p"}, true},
		{&ProviderError{Provider: "p", StatusCode: 500}, true},
		{&ProviderError{Provider: "p"}, true},
		{&ProviderError{Provider: "p", StatusCode: 400}, false},
		{&AuthError{Provider: "p"}, false},
		{&ParseError{Provider: "p"}, false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%T %v) = %v, want %v", tt.err, tt.err, got, tt.want)
		}
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Provider: "openai", Field: "api_key", Message: "required"}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("expected field in message, got %q", err.Error())
	}
}

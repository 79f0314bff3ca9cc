package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"mercator-hq/chatgate/pkg/analysis"
	"mercator-hq/chatgate/pkg/gateway"
	"mercator-hq/chatgate/pkg/limits/ratelimit"
	"mercator-hq/chatgate/pkg/proxy/types"
	"mercator-hq/chatgate/pkg/security/auth"
)

func TestHandleError(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantParam  string
	}{
		{
			name:       "request error",
			err:        &RequestError{Message: "message is required", Code: types.CodeMissingField, Param: "message"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeMissingField,
			wantParam:  "message",
		},
		{
			name:       "analysis validation",
			err:        &analysis.ValidationError{Field: "categories", Message: "need 2 to 10"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeInvalidValue,
			wantParam:  "categories",
		},
		{
			name:       "invalid turn",
			err:        fmt.Errorf("%w: message is empty", gateway.ErrInvalidTurn),
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeInvalidValue,
			wantParam:  "message",
		},
		{
			name:       "rate limited",
			err:        &ratelimit.ExceededError{Identity: "1.2.3.4", Limit: 2, RetryAfter: time.Second, Reason: "rate limit exceeded"},
			wantStatus: http.StatusTooManyRequests,
			wantCode:   types.CodeRateLimited,
		},
		{
			name:       "missing key",
			err:        auth.ErrMissingKey,
			wantStatus: http.StatusUnauthorized,
			wantCode:   types.CodeMissingAPIKey,
		},
		{
			name:       "disabled key",
			err:        auth.ErrKeyDisabled,
			wantStatus: http.StatusForbidden,
			wantCode:   types.CodeInvalidAPIKey,
		},
		{
			name:       "upstream failure",
			err:        &gateway.UpstreamError{Op: "complete", Provider: "openai", Cause: cause},
			wantStatus: http.StatusBadGateway,
			wantCode:   types.CodeProviderError,
		},
		{
			name:       "upstream timeout",
			err:        &gateway.UpstreamError{Op: "complete", Provider: "openai", Timeout: true, Cause: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   types.CodeProviderTimeout,
		},
		{
			name:       "stream interrupted",
			err:        &gateway.UpstreamError{Op: "stream", Provider: "openai", Fragments: 3, Cause: cause},
			wantStatus: http.StatusBadGateway,
			wantCode:   types.CodeStreamInterrupted,
		},
		{
			name:       "malformed payload",
			err:        fmt.Errorf("classify: %w", &gateway.MalformedPayloadError{Raw: "nope", Reason: "not JSON"}),
			wantStatus: http.StatusBadGateway,
			wantCode:   types.CodeMalformedPayload,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := HandleError(tt.err)
			if got := resp.Error.HTTPStatusCode(); got != tt.wantStatus {
				t.Errorf("Status = %d, want %d", got, tt.wantStatus)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
			if resp.Error.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", resp.Error.Param, tt.wantParam)
			}
		})
	}
}

func TestHandleError_DoesNotLeakCause(t *testing.T) {
	resp := HandleError(&gateway.UpstreamError{
		Op:       "complete",
		Provider: "openai",
		Cause:    errors.New("401 invalid key sk-secret"),
	})
	if msg := resp.Error.Message; msg != "Provider error (openai)" {
		t.Errorf("Expected provider cause to stay out of the response, got %q", msg)
	}
}

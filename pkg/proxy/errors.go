package proxy

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/chatgate/pkg/analysis"
	"mercator-hq/chatgate/pkg/gateway"
	"mercator-hq/chatgate/pkg/limits/ratelimit"
	"mercator-hq/chatgate/pkg/proxy/types"
	"mercator-hq/chatgate/pkg/security/auth"
)

// HandleError converts the errors raised while serving a request into error
// responses. The error type determines the HTTP status.
//
// Example usage:
//
//	if err != nil {
//	    errResp := HandleError(err)
//	    WriteErrorResponse(w, errResp)
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var valErr *analysis.ValidationError
	if errors.As(err, &valErr) {
		return types.NewInvalidRequestError(valErr.Message, valErr.Field, types.CodeInvalidValue)
	}

	if errors.Is(err, gateway.ErrInvalidTurn) {
		return types.NewInvalidRequestError(err.Error(), "message", types.CodeInvalidValue)
	}

	var limitErr *ratelimit.ExceededError
	if errors.As(err, &limitErr) {
		return types.NewRateLimitError(
			fmt.Sprintf("Rate limit exceeded: %d requests per window", limitErr.Limit),
		)
	}

	switch {
	case errors.Is(err, auth.ErrMissingKey):
		return types.NewAuthenticationError("Missing API key")
	case errors.Is(err, auth.ErrInvalidKey):
		return types.NewPermissionDeniedError("Invalid API key")
	}

	var malformedErr *gateway.MalformedPayloadError
	if errors.As(err, &malformedErr) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Provider reply could not be decoded: %s", malformedErr.Reason),
			types.CodeMalformedPayload,
		)
	}

	var upstreamErr *gateway.UpstreamError
	if errors.As(err, &upstreamErr) {
		return handleUpstreamError(upstreamErr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewGatewayTimeoutError("Request timed out")
	}

	// Default to internal server error for unknown errors
	return types.NewServerError(
		"An internal error occurred. Please try again later.",
	)
}

// handleUpstreamError maps a failed model invocation to 504 on timeout and
// 502 otherwise.
func handleUpstreamError(err *gateway.UpstreamError) *types.ErrorResponse {
	switch {
	case err.Timeout:
		return types.NewGatewayTimeoutError(
			fmt.Sprintf("Provider request timed out (%s)", err.Provider),
		)
	case err.Interrupted():
		return types.NewBadGatewayError(
			fmt.Sprintf("Provider stream interrupted after %d fragments (%s)", err.Fragments, err.Provider),
			types.CodeStreamInterrupted,
		)
	default:
		return types.NewBadGatewayError(
			fmt.Sprintf("Provider error (%s)", err.Provider),
			types.CodeProviderError,
		)
	}
}

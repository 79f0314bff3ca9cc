package gateway

import (
	"errors"
	"fmt"

	"mercator-hq/chatgate/pkg/limits/ratelimit"
)

var (
	// ErrRateLimitExceeded is matched by every admission rejection.
	ErrRateLimitExceeded = ratelimit.ErrLimitExceeded

	// ErrUpstreamFailure is matched by provider errors, timeouts and empty
	// replies.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrStreamInterrupted is matched when a stream fails after at least one
	// fragment was delivered.
	ErrStreamInterrupted = errors.New("stream interrupted")

	// ErrMalformedUpstreamPayload is matched when a structured reply cannot be
	// decoded.
	ErrMalformedUpstreamPayload = errors.New("malformed upstream payload")

	// ErrInvalidTurn is returned for requests rejected before any state is
	// touched.
	ErrInvalidTurn = errors.New("invalid turn")

	errEmptyResponse = errors.New("provider returned an empty response")
	errNoStream      = errors.New("provider returned no stream")
)

// UpstreamError describes a failed model invocation. Nothing is persisted
// for a turn that ends in an UpstreamError.
type UpstreamError struct {
	// Op is "complete" or "stream".
	Op string

	// Provider is the provider name.
	Provider string

	// Timeout is set when the call exceeded the upstream timeout.
	Timeout bool

	// Fragments is the number of fragments delivered before the failure.
	Fragments int

	Cause error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("upstream %s via %q timed out: %v", e.Op, e.Provider, e.Cause)
	case e.Fragments > 0:
		return fmt.Sprintf("upstream %s via %q interrupted after %d fragments: %v", e.Op, e.Provider, e.Fragments, e.Cause)
	default:
		return fmt.Sprintf("upstream %s via %q failed: %v", e.Op, e.Provider, e.Cause)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Is matches ErrUpstreamFailure, and ErrStreamInterrupted once fragments
// were delivered.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamFailure:
		return true
	case ErrStreamInterrupted:
		return e.Fragments > 0
	}
	return false
}

// Interrupted reports whether the failure happened mid-stream.
func (e *UpstreamError) Interrupted() bool {
	return e.Fragments > 0
}

// MalformedPayloadError is returned when the model's reply does not contain
// the structured payload the caller asked for.
type MalformedPayloadError struct {
	// Raw is the reply text as received.
	Raw string

	// Reason says what was wrong with it.
	Reason string

	Cause error
}

func (e *MalformedPayloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed upstream payload: %s: %v", e.Reason, e.Cause)
	}
	return "malformed upstream payload: " + e.Reason
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Cause
}

// Is matches ErrMalformedUpstreamPayload.
func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedUpstreamPayload
}

package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrLimitExceeded is matched by every rejection returned from this package.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Config configures a Limiter.
type Config struct {
	// Requests is the number of requests admitted per identity per Window.
	Requests int

	// Window is the length of the trailing window.
	Window time.Duration
}

// CheckResult contains the result of a rate limit check.
// This is returned by Limiter.Check() to indicate if a request is allowed.
type CheckResult struct {
	// Identity is the client the check was made for.
	Identity string

	// Allowed indicates if the request is permitted.
	Allowed bool

	// Reason explains why the request was rejected (if Allowed=false).
	Reason string

	// Limit is the configured limit value.
	Limit int64

	// Remaining is how many requests remain in the window after this check.
	Remaining int64

	// Reset is when the oldest recorded request leaves the window.
	Reset time.Time

	// RetryAfter suggests how long to wait before retrying.
	RetryAfter time.Duration
}

// Err converts a rejected result into an *ExceededError. It returns nil for
// admitted requests.
func (r *CheckResult) Err() error {
	if r == nil || r.Allowed {
		return nil
	}
	return &ExceededError{
		Identity:   r.Identity,
		Limit:      r.Limit,
		RetryAfter: r.RetryAfter,
		Reason:     r.Reason,
	}
}

// ExceededError is returned when an identity has used up its window.
type ExceededError struct {
	Identity   string
	Limit      int64
	RetryAfter time.Duration
	Reason     string
}

// Error implements the error interface.
func (e *ExceededError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s for %q (limit %d, retry after %v)", e.Reason, e.Identity, e.Limit, e.RetryAfter)
	}
	return fmt.Sprintf("%s for %q (limit %d)", e.Reason, e.Identity, e.Limit)
}

// Is reports whether target is ErrLimitExceeded.
func (e *ExceededError) Is(target error) bool {
	return target == ErrLimitExceeded
}

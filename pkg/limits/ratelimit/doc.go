// Package ratelimit provides the per-client request budget for the gateway.
//
// # Overview
//
// The Limiter keeps an exact sliding-window log per client identity: the
// timestamps of every admitted request that still falls inside the trailing
// window. A request is admitted while fewer than Requests timestamps remain
// after purging the expired ones:
//
//	limiter, err := ratelimit.NewLimiter(ratelimit.Config{
//	    Requests: 100,
//	    Window:   time.Minute,
//	})
//	if err != nil {
//	    return err
//	}
//
//	if result := limiter.Check(clientIP); !result.Allowed {
//	    return result.Err() // matches ratelimit.ErrLimitExceeded
//	}
//
// Rejected requests are never recorded, so a client hammering the limiter
// does not extend its own penalty.
//
// # Edge Cases
//
//   - Requests == 0 rejects everything.
//   - Window == 0 admits everything and records nothing.
//
// # Thread Safety
//
// The identity map is only locked for lookup and insertion. Each client window
// carries its own mutex, so checks for different identities never contend.
// Idle windows are reclaimed with Compact, which the session reaper calls on
// every sweep.
package ratelimit

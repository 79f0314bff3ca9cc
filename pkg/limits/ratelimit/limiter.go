package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter enforces a sliding-window request budget per client identity.
//
// Each identity owns a clientWindow holding the timestamps of its admitted
// requests. Checks against different identities only share the map lock, and
// only for the lookup itself.
type Limiter struct {
	config Config
	now    func() time.Time

	mu      sync.RWMutex
	windows map[string]*clientWindow
}

// clientWindow is the ordered log of admitted request times for one identity.
type clientWindow struct {
	mu    sync.Mutex
	times []time.Time

	// dead is set by Compact after the window has been removed from the map.
	// A checker holding a stale pointer must look the identity up again.
	dead bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a new rate limiter with the given configuration.
//
// Negative limits are rejected; zero values are valid and follow the edge
// cases documented on the package.
func NewLimiter(config Config, opts ...Option) (*Limiter, error) {
	if config.Requests < 0 {
		return nil, fmt.Errorf("ratelimit: requests must be >= 0, got %d", config.Requests)
	}
	if config.Window < 0 {
		return nil, fmt.Errorf("ratelimit: window must be >= 0, got %v", config.Window)
	}

	l := &Limiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*clientWindow),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Admit reports whether a request from identity is allowed, recording it if so.
func (l *Limiter) Admit(identity string) bool {
	return l.Check(identity).Allowed
}

// Check evaluates and, when allowed, records a request from identity.
func (l *Limiter) Check(identity string) *CheckResult {
	limit := int64(l.config.Requests)

	if l.config.Window == 0 {
		return &CheckResult{Identity: identity, Allowed: true, Limit: limit, Remaining: limit}
	}
	if l.config.Requests == 0 {
		return &CheckResult{
			Identity: identity,
			Allowed:  false,
			Reason:   "rate limit exceeded",
			Limit:    0,
		}
	}

	for {
		w := l.window(identity)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		result := l.record(w, identity)
		w.mu.Unlock()
		return result
	}
}

// record applies the sliding-window rule to w. The caller holds w.mu.
func (l *Limiter) record(w *clientWindow, identity string) *CheckResult {
	now := l.now()
	windowStart := now.Add(-l.config.Window)
	w.purge(windowStart)

	limit := int64(l.config.Requests)
	count := int64(len(w.times))

	if count >= limit {
		reset := w.times[0].Add(l.config.Window)
		return &CheckResult{
			Identity:   identity,
			Allowed:    false,
			Reason:     "rate limit exceeded",
			Limit:      limit,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: reset.Sub(now),
		}
	}

	w.times = append(w.times, now)
	return &CheckResult{
		Identity:  identity,
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
		Reset:     w.times[0].Add(l.config.Window),
	}
}

// window returns the window for identity, creating it on first use.
func (l *Limiter) window(identity string) *clientWindow {
	l.mu.RLock()
	w, ok := l.windows[identity]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[identity]; ok {
		return w
	}
	w = &clientWindow{}
	l.windows[identity] = w
	return w
}

// purge drops every timestamp at or before windowStart. Timestamps are
// appended in order, so the expired ones form a prefix.
func (w *clientWindow) purge(windowStart time.Time) {
	i := 0
	for i < len(w.times) && !w.times[i].After(windowStart) {
		i++
	}
	if i == 0 {
		return
	}
	w.times = append(w.times[:0], w.times[i:]...)
}

// Compact removes windows with no timestamps inside the trailing window as of
// now and returns how many were removed.
func (l *Limiter) Compact(now time.Time) int {
	if l.config.Window == 0 {
		return 0
	}
	windowStart := now.Add(-l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for identity, w := range l.windows {
		w.mu.Lock()
		w.purge(windowStart)
		if len(w.times) == 0 {
			w.dead = true
			delete(l.windows, identity)
			removed++
		}
		w.mu.Unlock()
	}
	return removed
}

// Len returns the number of identities currently tracked.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// Config returns the limiter configuration.
func (l *Limiter) Config() Config {
	return l.config
}

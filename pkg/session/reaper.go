package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Compactor is swept alongside the store on every reaper run. The rate
// limiter implements it to drop idle client windows.
type Compactor interface {
	Compact(now time.Time) int
}

// ReaperConfig configures a Reaper.
type ReaperConfig struct {
	// TTL is how long a conversation may stay untouched before eviction.
	TTL time.Duration

	// Interval is the time between sweeps. robfig/cron rounds it to whole
	// seconds with a one-second minimum.
	Interval time.Duration
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Scanned   int
	Evicted   int
	Compacted int
	Duration  time.Duration
}

// Reaper periodically evicts idle conversations from a Store.
type Reaper struct {
	store     *Store
	config    ReaperConfig
	compactor Compactor
	onSweep   func(SweepResult)
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	stop    chan struct{}
	running bool
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithCompactor registers c to be compacted after each sweep.
func WithCompactor(c Compactor) ReaperOption {
	return func(r *Reaper) {
		r.compactor = c
	}
}

// WithSweepHook registers fn to be called with the result of every sweep.
func WithSweepHook(fn func(SweepResult)) ReaperOption {
	return func(r *Reaper) {
		r.onSweep = fn
	}
}

// WithReaperClock replaces time.Now. Intended for tests.
func WithReaperClock(now func() time.Time) ReaperOption {
	return func(r *Reaper) {
		r.now = now
	}
}

// WithReaperLogger sets the logger.
func WithReaperLogger(logger *slog.Logger) ReaperOption {
	return func(r *Reaper) {
		r.logger = logger
	}
}

// NewReaper creates a reaper for store. It does nothing until Start is called.
func NewReaper(store *Store, config ReaperConfig, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		store:  store,
		config: config,
		now:    time.Now,
		logger: slog.Default().With("component", "session.reaper"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start schedules sweeps every Interval. The schedule stops when ctx is
// cancelled or Stop is called.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("reaper already running")
	}
	if r.config.TTL <= 0 {
		return fmt.Errorf("reaper ttl must be positive, got %v", r.config.TTL)
	}
	if r.config.Interval <= 0 {
		return fmt.Errorf("reaper interval must be positive, got %v", r.config.Interval)
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", r.config.Interval)
	if _, err := c.AddFunc(spec, func() { r.Sweep(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	stop := make(chan struct{})
	c.Start()
	r.cron = c
	r.stop = stop
	r.running = true

	r.logger.Info("session reaper started",
		"ttl", r.config.TTL,
		"interval", r.config.Interval,
	)

	// Bound to this run only: a later Start gets its own schedule and channel.
	go func() {
		select {
		case <-ctx.Done():
			r.stopSchedule(c)
		case <-stop:
		}
	}()

	return nil
}

// Sweep evicts every conversation idle for longer than TTL and compacts the
// registered Compactor. It is safe to call concurrently with store traffic.
func (r *Reaper) Sweep(ctx context.Context) SweepResult {
	start := time.Now()
	now := r.now()
	cutoff := now.Add(-r.config.TTL)

	entries := r.store.Snapshot()
	result := SweepResult{Scanned: len(entries)}

	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if !e.LastTouched.Before(cutoff) {
			continue
		}
		if r.store.Expire(e.ID, cutoff) {
			result.Evicted++
		}
	}

	if r.compactor != nil {
		result.Compacted = r.compactor.Compact(now)
	}
	result.Duration = time.Since(start)

	if result.Evicted > 0 || result.Compacted > 0 {
		r.logger.Info("session sweep completed",
			"scanned", result.Scanned,
			"evicted", result.Evicted,
			"compacted", result.Compacted,
			"duration", result.Duration,
		)
	} else {
		r.logger.Debug("session sweep completed, nothing evicted",
			"scanned", result.Scanned,
		)
	}

	if r.onSweep != nil {
		r.onSweep(result)
	}
	return result
}

// Stop stops the schedule and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	c := r.cron
	r.mu.Unlock()

	if c != nil {
		r.stopSchedule(c)
	}
}

// stopSchedule stops c if it is still the current schedule.
func (r *Reaper) stopSchedule(c *cron.Cron) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != c || !r.running {
		return
	}

	close(r.stop)
	done := c.Stop()
	<-done.Done()
	r.running = false
	r.logger.Info("session reaper stopped")
}

// IsRunning returns true if the reaper is scheduled.
func (r *Reaper) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

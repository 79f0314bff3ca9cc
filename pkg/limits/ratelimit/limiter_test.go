package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, requests int, window time.Duration, clock *fakeClock) *Limiter {
	t.Helper()
	l, err := NewLimiter(Config{Requests: requests, Window: window}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}
	return l
}

// ============================================================================
// Sliding Window Log Tests
// ============================================================================

func TestLimiter_AdmitSequence(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, 2, 60*time.Second, clock)

	var got []bool
	for i := 0; i < 3; i++ {
		got = append(got, l.Admit("A"))
		clock.Advance(time.Second)
	}

	want := []bool{true, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Admit sequence = %v, want %v", got, want)
		}
	}

	// t=63: both admitted entries (t=0, t=1) are at or before 63-60=3.
	clock.Advance(60 * time.Second)
	if !l.Admit("A") {
		t.Error("Expected admit after window elapsed")
	}
}

func TestLimiter_BoundaryIsExclusive(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, 1, time.Minute, clock)

	if !l.Admit("A") {
		t.Fatal("Expected first request to be admitted")
	}

	clock.Advance(time.Minute - time.Nanosecond)
	if l.Admit("A") {
		t.Error("Expected reject while entry is still inside the window")
	}

	// Entry at exactly now-window is purged.
	clock.Advance(time.Nanosecond)
	if !l.Admit("A") {
		t.Error("Expected admit once entry sits exactly on the window start")
	}
}

func TestLimiter_RejectionsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, 1, 10*time.Second, clock)

	l.Admit("A")
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		if l.Admit("A") {
			t.Fatalf("Expected reject at +%ds", i+1)
		}
	}

	// Only the admitted request at t=0 counts; it expires at t=10.
	clock.Advance(5 * time.Second)
	if !l.Admit("A") {
		t.Error("Rejected requests must not extend the window")
	}
}

func TestLimiter_IdentitiesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, 1, time.Minute, clock)

	if !l.Admit("A") || !l.Admit("B") {
		t.Fatal("Expected first request of each identity to be admitted")
	}
	if l.Admit("A") {
		t.Error("Expected A to be limited")
	}
	if l.Len() != 2 {
		t.Errorf("Expected 2 tracked identities, got %d", l.Len())
	}
}

func TestLimiter_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		requests int
		window   time.Duration
		want     bool
	}{
		{name: "zero capacity always rejects", requests: 0, window: time.Minute, want: false},
		{name: "zero window always admits", requests: 1, window: 0, want: true},
		{name: "zero both admits", requests: 0, window: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLimiter(t, tt.requests, tt.window, newFakeClock())
			for i := 0; i < 5; i++ {
				if got := l.Admit("A"); got != tt.want {
					t.Fatalf("Admit #%d = %v, want %v", i, got, tt.want)
				}
			}
		})
	}
}

func TestNewLimiter_RejectsNegativeConfig(t *testing.T) {
	if _, err := NewLimiter(Config{Requests: -1, Window: time.Second}); err == nil {
		t.Error("Expected error for negative requests")
	}
	if _, err := NewLimiter(Config{Requests: 1, Window: -time.Second}); err == nil {
		t.Error("Expected error for negative window")
	}
}

func TestCheckResult_Err(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, 1, time.Minute, clock)

	if err := l.Check("A").Err(); err != nil {
		t.Fatalf("Expected nil error for admitted request, got %v", err)
	}

	clock.Advance(20 * time.Second)
	result := l.Check("A")
	if result.Allowed {
		t.Fatal("Expected second request to be rejected")
	}
	if result.RetryAfter != 40*time.Second {
		t.Errorf("RetryAfter = %v, want 40s", result.RetryAfter)
	}

	err := result.Err()
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("Expected error to match ErrLimitExceeded, got %v", err)
	}
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected *ExceededError, got %T", err)
	}
	if exceeded.Identity != "A" || exceeded.Limit != 1 {
		t.Errorf("Unexpected error fields: %+v", exceeded)
	}
}

func TestLimiter_Remaining(t *testing.T) {
	l := newTestLimiter(t, 3, time.Minute, newFakeClock())

	for want := int64(2); want >= 0; want-- {
		if got := l.Check("A").Remaining; got != want {
			t.Errorf("Remaining = %d, want %d", got, want)
		}
	}
}

// ============================================================================
// Compaction Tests
// ============================================================================

func TestLimiter_Compact(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, 5, time.Minute, clock)

	l.Admit("old")
	clock.Advance(45 * time.Second)
	l.Admit("fresh")
	clock.Advance(30 * time.Second)

	if removed := l.Compact(clock.Now()); removed != 1 {
		t.Errorf("Compact() removed %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Expected 1 remaining identity, got %d", l.Len())
	}

	// A compacted identity starts over with a fresh window.
	if !l.Admit("old") {
		t.Error("Expected compacted identity to be admitted")
	}
}

func TestLimiter_CompactConcurrentWithCheck(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(t, 1000, time.Minute, clock)

	var wg sync.WaitGroup
	var admitted atomic.Int64
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				l.Compact(clock.Now())
			}
		}
	}()

	var workers sync.WaitGroup
	for i := 0; i < 20; i++ {
		workers.Add(1)
		go func(i int) {
			defer workers.Done()
			for j := 0; j < 50; j++ {
				if l.Admit(fmt.Sprintf("client-%d", i%4)) {
					admitted.Add(1)
				}
			}
		}(i)
	}
	workers.Wait()
	close(stop)
	wg.Wait()

	if admitted.Load() != 1000 {
		t.Errorf("Expected all 1000 requests admitted, got %d", admitted.Load())
	}

	// Nothing expired, so no admitted record may have been dropped.
	total := 0
	for i := 0; i < 4; i++ {
		total += 1000 - int(l.Check(fmt.Sprintf("client-%d", i)).Remaining) - 1
	}
	if total != 1000 {
		t.Errorf("Expected 1000 recorded requests across identities, got %d", total)
	}
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestLimiter_ConcurrentSameIdentity(t *testing.T) {
	l := newTestLimiter(t, 25, time.Minute, newFakeClock())

	var wg sync.WaitGroup
	var admitted atomic.Int64
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit("shared") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if admitted.Load() != 25 {
		t.Errorf("Expected exactly 25 admits, got %d", admitted.Load())
	}
}

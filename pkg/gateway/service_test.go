package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/chatgate/pkg/config"
	"mercator-hq/chatgate/pkg/telemetry/metrics"
)

func testServiceConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Limits.Rate.Requests = 2
	cfg.Limits.Rate.Window = time.Minute
	cfg.Sessions.TTL = 60 * time.Second
	cfg.Sessions.SweepInterval = time.Second
	cfg.Sessions.MaxTurns = 4
	return cfg
}

func TestNewService_RequiresConfig(t *testing.T) {
	if _, err := NewService(newFakeProvider(), nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestNewService_RejectsNegativeRate(t *testing.T) {
	cfg := testServiceConfig()
	cfg.Limits.Rate.Requests = -1
	if _, err := NewService(newFakeProvider(), cfg, WithServiceLogger(quietLogger())); err == nil {
		t.Error("Expected error for negative rate")
	}
}

func TestService_Lifecycle(t *testing.T) {
	svc, err := NewService(newFakeProvider(), testServiceConfig(), WithServiceLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !svc.Reaper().IsRunning() {
		t.Error("Expected reaper running after Start")
	}
	if err := svc.Start(context.Background()); err == nil {
		t.Error("Expected error on second Start")
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if svc.Reaper().IsRunning() {
		t.Error("Expected reaper stopped after Close")
	}
	if err := svc.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}
}

func TestService_MaxTurnsFromConfig(t *testing.T) {
	svc, err := NewService(newFakeProvider(), testServiceConfig(), WithServiceLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	// Three exchanges are six turns; max_turns=4 keeps the last four.
	for i := 0; i < 3; i++ {
		if _, err := svc.Gateway().HandleTurn(context.Background(), TurnRequest{ConversationID: "c", Message: "Hi"}); err != nil {
			t.Fatalf("HandleTurn failed: %v", err)
		}
	}
	if got := len(svc.Store().History("c")); got != 4 {
		t.Errorf("Expected 4 turns retained, got %d", got)
	}
}

func TestService_SweepEvictsIdleAndCompactsLimiter(t *testing.T) {
	clock := newManualClock()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "chatgate"}, registry)

	svc, err := NewService(newFakeProvider(), testServiceConfig(),
		WithServiceLogger(quietLogger()),
		WithServiceClock(clock.Now),
		WithServiceMetrics(collector),
	)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	gw := svc.Gateway()

	if err := gw.Admit("client"); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if _, err := gw.HandleTurn(context.Background(), TurnRequest{ConversationID: "idle", Message: "Hi"}); err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}

	clock.Advance(61 * time.Second)
	if _, err := gw.HandleTurn(context.Background(), TurnRequest{ConversationID: "fresh", Message: "Hi"}); err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}

	result := svc.Reaper().Sweep(context.Background())
	if result.Evicted != 1 {
		t.Errorf("Expected 1 eviction, got %d", result.Evicted)
	}
	if result.Compacted != 1 {
		t.Errorf("Expected the idle client window compacted, got %d", result.Compacted)
	}
	if len(svc.Store().History("idle")) != 0 {
		t.Error("Expected idle conversation evicted")
	}
	if len(svc.Store().History("fresh")) == 0 {
		t.Error("Expected fresh conversation kept")
	}
	if svc.Limiter().Len() != 0 {
		t.Errorf("Expected no client windows left, got %d", svc.Limiter().Len())
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var active float64 = -1
	for _, mf := range families {
		if mf.GetName() == "chatgate_sessions_active" {
			active = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	if active != 1 {
		t.Errorf("Expected sessions_active 1, got %v", active)
	}
	if n := testutil.CollectAndCount(registry, "chatgate_sessions_evicted_total"); n != 1 {
		t.Errorf("Expected sessions_evicted_total to be exported, got %d series", n)
	}
}

func TestService_RateLimitScenario(t *testing.T) {
	clock := newManualClock()
	svc, err := NewService(newFakeProvider(), testServiceConfig(),
		WithServiceLogger(quietLogger()),
		WithServiceClock(clock.Now),
	)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	gw := svc.Gateway()

	for i, want := range []bool{true, true, false} {
		err := gw.Admit("c")
		if got := err == nil; got != want {
			t.Fatalf("request %d: expected admitted=%v, got %v", i, want, err)
		}
	}

	clock.Advance(time.Minute + time.Millisecond)
	if err := gw.Admit("c"); err != nil {
		t.Errorf("Expected admission after the window passed, got %v", err)
	}

	if err := gw.Admit("c"); err != nil {
		t.Fatalf("Expected second admission in the new window, got %v", err)
	}
	if exceeded := gw.Admit("c"); !errors.Is(exceeded, ErrRateLimitExceeded) {
		t.Errorf("Expected ErrRateLimitExceeded, got %v", exceeded)
	}
}

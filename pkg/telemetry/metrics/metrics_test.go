package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/chatgate/pkg/config"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordHTTPRequest("POST /api/chat", 200, 150*time.Millisecond)
	collector.RecordHTTPRequest("POST /api/chat", 200, 250*time.Millisecond)
	collector.RecordHTTPRequest("POST /api/chat", 429, time.Millisecond)

	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("POST /api/chat", "200")); got != 2 {
		t.Errorf("Expected 2 successful requests, got %v", got)
	}
	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("POST /api/chat", "429")); got != 1 {
		t.Errorf("Expected 1 rejected request, got %v", got)
	}
}

func TestCollector_RouteCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.routes = NewCardinalityLimiter(1)

	collector.RecordHTTPRequest("GET /health", 200, time.Millisecond)
	collector.RecordHTTPRequest("GET /unknown", 404, time.Millisecond)

	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues(OtherRoute, "404")); got != 1 {
		t.Errorf("Expected overflow route to be folded into %q, got %v", OtherRoute, got)
	}
}

func TestCollector_RecordTurn(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordTurn("complete", "ok", time.Second, 30)
	collector.RecordTurn("stream", "ok", 2*time.Second, 70)
	collector.RecordTurn("stream", "interrupted", 0, 0)
	collector.RecordFragment()
	collector.RecordFragment()

	if got := testutil.ToFloat64(collector.turnMetrics.turnsTotal.WithLabelValues("stream", "ok")); got != 1 {
		t.Errorf("Expected 1 ok stream turn, got %v", got)
	}
	if got := testutil.ToFloat64(collector.turnMetrics.tokensTotal); got != 100 {
		t.Errorf("Expected 100 tokens, got %v", got)
	}
	if got := testutil.ToFloat64(collector.turnMetrics.fragmentsTotal); got != 2 {
		t.Errorf("Expected 2 fragments, got %v", got)
	}
	if got := testutil.CollectAndCount(collector.turnMetrics.upstreamLatency); got != 2 {
		t.Errorf("Expected latency series for 2 modes, got %d", got)
	}
}

func TestCollector_RecordRateLimit(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordRateLimit(true)
	collector.RecordRateLimit(true)
	collector.RecordRateLimit(false)

	if got := testutil.ToFloat64(collector.limitMetrics.decisionsTotal.WithLabelValues("allowed")); got != 2 {
		t.Errorf("Expected 2 allowed, got %v", got)
	}
	if got := testutil.ToFloat64(collector.limitMetrics.decisionsTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("Expected 1 rejected, got %v", got)
	}
}

func TestCollector_UpdateSessions(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.UpdateSessions(5, 2)
	collector.UpdateSessions(3, 2)

	if got := testutil.ToFloat64(collector.sessionMetrics.active); got != 3 {
		t.Errorf("Expected 3 active sessions, got %v", got)
	}
	if got := testutil.ToFloat64(collector.sessionMetrics.evicted); got != 4 {
		t.Errorf("Expected 4 evicted sessions, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordRateLimit(true)
	if got := testutil.ToFloat64(collector.limitMetrics.decisionsTotal.WithLabelValues("allowed")); got != 0 {
		t.Errorf("Expected no recording when disabled, got %v", got)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var collector *Collector
	collector.RecordHTTPRequest("x", 200, time.Millisecond)
	collector.RecordTurn("complete", "ok", time.Second, 1)
	collector.RecordFragment()
	collector.RecordRateLimit(false)
	collector.UpdateSessions(1, 1)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordTurn("complete", "ok", time.Second, 10)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "test_turns_total") {
		t.Errorf("Expected turns metric in exposition, got:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("Expected Go runtime metrics on the default registry")
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("Expected first two label sets to be allowed")
	}
	if cl.Allow("c") {
		t.Error("Expected third label set to be rejected")
	}
	if !cl.Allow("a") {
		t.Error("Expected known label set to stay allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("Expected count 2, got %d", cl.Count())
	}
}

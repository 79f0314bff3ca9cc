package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/chatgate/pkg/config"
)

// OtherRoute replaces route labels once the cardinality limit is reached.
const OtherRoute = "other"

// Collector owns every chatgate metric and the registry they live in. All
// methods are safe on a nil *Collector and become no-ops when metrics are
// disabled, so components can record unconditionally.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	httpMetrics    *HTTPMetrics
	turnMetrics    *TurnMetrics
	limitMetrics   *LimitMetrics
	sessionMetrics *SessionMetrics

	routes *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics with registry.
// A nil registry gets a fresh one with the Go runtime and process collectors.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		httpMetrics:    NewHTTPMetrics(cfg, registry),
		turnMetrics:    NewTurnMetrics(cfg, registry),
		limitMetrics:   NewLimitMetrics(cfg, registry),
		sessionMetrics: NewSessionMetrics(cfg, registry),
		routes:         NewCardinalityLimiter(100),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordHTTPRequest records a served HTTP request.
func (c *Collector) RecordHTTPRequest(route string, code int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	if !c.routes.Allow(route) {
		route = OtherRoute
	}
	c.httpMetrics.Record(route, strconv.Itoa(code), duration)
}

// RecordTurn records a finished chat turn.
//
// Parameters:
//   - mode: "complete" or "stream"
//   - outcome: "ok", "rate_limited", "upstream_error", "interrupted", "canceled"
//   - latency: time spent waiting on the provider
//   - tokens: tokens reported by the provider
func (c *Collector) RecordTurn(mode, outcome string, latency time.Duration, tokens int) {
	if !c.enabled() {
		return
	}
	c.turnMetrics.Record(mode, outcome, latency, tokens)
}

// RecordFragment counts one streamed fragment delivered to a client.
func (c *Collector) RecordFragment() {
	if !c.enabled() {
		return
	}
	c.turnMetrics.fragmentsTotal.Inc()
}

// RecordRateLimit records an admission decision.
func (c *Collector) RecordRateLimit(allowed bool) {
	if !c.enabled() {
		return
	}
	c.limitMetrics.Record(allowed)
}

// UpdateSessions publishes the live conversation count and the number
// evicted by the last sweep.
func (c *Collector) UpdateSessions(active, evicted int) {
	if !c.enabled() {
		return
	}
	c.sessionMetrics.Update(active, evicted)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter with the specified maximum.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used: it is either already
// known or there is room for it.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}

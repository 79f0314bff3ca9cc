package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/chatgate/pkg/config"
)

// LimitMetrics tracks admission decisions.
//
// Metrics:
//   - chatgate_rate_limit_decisions_total{result}
type LimitMetrics struct {
	decisionsTotal *prometheus.CounterVec
}

// NewLimitMetrics creates and registers rate limit metrics.
func NewLimitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LimitMetrics {
	m := &LimitMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rate_limit_decisions_total",
				Help:      "Total number of rate limit decisions by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(m.decisionsTotal)
	return m
}

// Record records one decision.
func (m *LimitMetrics) Record(allowed bool) {
	result := "rejected"
	if allowed {
		result = "allowed"
	}
	m.decisionsTotal.WithLabelValues(result).Inc()
}

// SessionMetrics tracks conversation retention.
//
// Metrics:
//   - chatgate_sessions_active
//   - chatgate_sessions_evicted_total
type SessionMetrics struct {
	active  prometheus.Gauge
	evicted prometheus.Counter
}

// NewSessionMetrics creates and registers session metrics.
func NewSessionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SessionMetrics {
	m := &SessionMetrics{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "sessions_active",
			Help:      "Number of conversations currently held",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "sessions_evicted_total",
			Help:      "Total number of conversations evicted for inactivity",
		}),
	}

	registry.MustRegister(m.active, m.evicted)
	return m
}

// Update sets the active gauge and adds to the eviction counter.
func (m *SessionMetrics) Update(active, evicted int) {
	m.active.Set(float64(active))
	if evicted > 0 {
		m.evicted.Add(float64(evicted))
	}
}

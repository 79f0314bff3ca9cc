package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/chatgate/pkg/config"
)

// TurnMetrics tracks gateway turns and upstream calls.
//
// Metrics:
//   - chatgate_turns_total{mode,outcome}
//   - chatgate_upstream_latency_seconds{mode}
//   - chatgate_stream_fragments_total
//   - chatgate_tokens_total
type TurnMetrics struct {
	turnsTotal      *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	fragmentsTotal  prometheus.Counter
	tokensTotal     prometheus.Counter
}

// NewTurnMetrics creates and registers turn metrics.
func NewTurnMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TurnMetrics {
	m := &TurnMetrics{
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "turns_total",
				Help:      "Total number of chat turns by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_latency_seconds",
				Help:      "Time spent waiting on the model provider",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"mode"},
		),
		fragmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "stream_fragments_total",
			Help:      "Total number of streamed fragments delivered",
		}),
		tokensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "tokens_total",
			Help:      "Total tokens reported by the provider",
		}),
	}

	registry.MustRegister(m.turnsTotal, m.upstreamLatency, m.fragmentsTotal, m.tokensTotal)
	return m
}

// Record records one finished turn.
func (m *TurnMetrics) Record(mode, outcome string, latency time.Duration, tokens int) {
	m.turnsTotal.WithLabelValues(mode, outcome).Inc()
	if latency > 0 {
		m.upstreamLatency.WithLabelValues(mode).Observe(latency.Seconds())
	}
	if tokens > 0 {
		m.tokensTotal.Add(float64(tokens))
	}
}

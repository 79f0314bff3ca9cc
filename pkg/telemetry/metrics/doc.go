// Package metrics provides Prometheus metrics for chatgate.
//
// A Collector registers every metric on its own registry and is passed to
// the components that record:
//
//   - HTTP: chatgate_http_requests_total, chatgate_http_request_duration_seconds
//   - Turns: chatgate_turns_total, chatgate_upstream_latency_seconds,
//     chatgate_stream_fragments_total, chatgate_tokens_total
//   - Limits: chatgate_rate_limit_decisions_total
//   - Sessions: chatgate_sessions_active, chatgate_sessions_evicted_total
//
// Usage:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordTurn("stream", "ok", 1200*time.Millisecond, 350)
//	mux.Handle("/metrics", collector.Handler())
package metrics

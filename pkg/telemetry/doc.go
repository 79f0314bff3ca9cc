// Package telemetry groups chatgate's observability packages.
//
//   - logging: slog setup with secret redaction and context fields
//   - metrics: Prometheus collector and /metrics handler
//   - tracing: OpenTelemetry tracer with OTLP gRPC export
//   - health: liveness and readiness endpoints
package telemetry

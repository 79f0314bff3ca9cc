package tracing

import sdktrace "go.opentelemetry.io/otel/sdk/trace"

// createSampler builds a parent-based sampler: a sampled parent forces
// sampling, and root spans are sampled at ratio.
func createSampler(ratio float64) sdktrace.Sampler {
	var base sdktrace.Sampler
	switch {
	case ratio >= 1:
		base = sdktrace.AlwaysSample()
	case ratio <= 0:
		base = sdktrace.NeverSample()
	default:
		base = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(base)
}

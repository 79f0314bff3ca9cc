// Package tracing provides OpenTelemetry tracing for chatgate.
//
// Spans are exported over OTLP gRPC when telemetry.tracing.enabled is set;
// otherwise a noop tracer keeps instrumentation free. Incoming W3C
// traceparent headers are honoured through HTTPMiddleware, and sampling is
// parent-based with a configurable ratio for root spans.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "gateway.HandleTurn")
//	defer span.End()
package tracing

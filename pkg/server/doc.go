// Package server provides the chatgate HTTP server.
//
// The server ties the gateway, the analysis helpers and the health and
// metrics endpoints to their routes, wraps them in the middleware chain and
// manages the listener lifecycle.
//
// # Basic Usage
//
//	srv, err := server.NewServer(cfg, server.Dependencies{
//	    Gateway:  service.Gateway(),
//	    Analyzer: analysis.New(service.Gateway()),
//	    Provider: provider,
//	    Health:   checker,
//	    Metrics:  collector,
//	    Keys:     validator,
//	    Logger:   logger,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// Start blocks until ctx is cancelled, then drains in-flight requests for
// up to server.shutdown_timeout. Streams still open at the deadline are cut.
//
// # Routes
//
//   - POST /api/chat - Completed chat turn
//   - POST /api/chat/stream - Streamed chat turn (Server-Sent Events)
//   - DELETE /api/chat/{conversation_id} - Forget a conversation
//   - POST /api/analysis/document - Summary, key points and sentiment
//   - POST /api/analysis/classify - Pick one of the given categories
//   - POST /api/analysis/batch - Summarize or classify up to 10 texts
//   - GET /health - Liveness probe
//   - GET /ready - Readiness probe (runs the provider health check)
//   - GET /health/provider - Passive provider health
//   - GET /metrics - Prometheus metrics, when enabled
//
// # Middleware Chain
//
// Outermost first: recovery, request ID, logging, metrics, CORS, trace
// context extraction, API key authentication (when enabled) and rate
// limiting. Authentication and rate limiting only apply under /api/.
package server

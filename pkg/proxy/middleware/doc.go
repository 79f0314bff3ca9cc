// Package middleware provides the HTTP middleware wrapped around the
// chatgate routes.
//
// # Middleware Chain
//
// The server assembles the chain outermost first:
//
//	Recovery → RequestID → Logging → Metrics → CORS → Tracing → Auth → RateLimit → mux
//
// Recovery sits outside everything so that a panic anywhere still produces
// a JSON 500. CORS answers preflight requests before authentication and
// rate limiting see them. RateLimit runs after Auth so that an authenticated
// client is limited by its key rather than by its address.
//
// # Request ID
//
// RequestIDMiddleware keeps a client supplied X-Request-ID when it is short
// printable ASCII and otherwise generates a ULID:
//
//	X-Request-ID: 01JCX3K8Q5ZB7W2N4H6T9VYR0M
//
// The ID is stored through the logging package so every log line written
// with the request context carries it.
//
// # Rate Limiting
//
// RateLimitMiddleware performs one admission check per /api/ request and
// reports the client's budget:
//
//	X-RateLimit-Limit: 20
//	X-RateLimit-Remaining: 0
//	X-RateLimit-Reset: 1767268860
//	Retry-After: 42
//
// Rejected requests get 429 with a rate_limit_exceeded error body and never
// reach conversation state.
//
// # Metrics
//
// MetricsMiddleware labels requests with the ServeMux pattern that serves
// them, for example "DELETE /api/chat/{conversation_id}", so path
// parameters do not create new series.
//
// # Streaming
//
// The status-capturing writer used by Logging and Metrics forwards Flush
// and supports http.ResponseController, so SSE fragments are not buffered
// by the chain.
package middleware

package middleware

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"

	"mercator-hq/chatgate/pkg/telemetry/logging"
)

const (
	// RequestIDHeader is the HTTP header for request ID.
	RequestIDHeader = "X-Request-ID"

	// maxRequestIDLength bounds client-supplied request IDs.
	maxRequestIDLength = 128
)

// RequestIDMiddleware generates a unique request ID for each request and adds it to
// the context and response headers. If the client provides a usable request ID in
// the X-Request-ID header, it will be used instead of generating a new one.
//
// The request ID is:
//   - Added to the request context, where the logger picks it up
//   - Included in the X-Request-ID response header
//   - Used for correlation in logs and tracing
//
// Generated IDs are ULIDs, so they sort by creation time.
//
// Example usage:
//
//	handler = RequestIDMiddleware(handler)
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// generateRequestID returns a new ULID, e.g. "01ARZ3NDEKTSV4RRFFQ69G5FAV".
func generateRequestID() string {
	return ulid.Make().String()
}

// validRequestID accepts non-empty printable ASCII up to maxRequestIDLength,
// which keeps header and log injection out.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID extracts the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}

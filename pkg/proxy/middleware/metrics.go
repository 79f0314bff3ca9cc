package middleware

import (
	"net/http"
	"time"

	"mercator-hq/chatgate/pkg/telemetry/metrics"
)

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// RouteMatcher resolves the route pattern a request will be served by.
// *http.ServeMux implements it.
type RouteMatcher interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

// MetricsMiddleware records http_requests_total and
// http_request_duration_seconds for every request, labelled with the
// route pattern rather than the raw path so that ids in the URL do not
// explode cardinality. Requests rejected by outer middleware such as
// authentication or rate limiting are counted under their route too.
//
// Example usage:
//
//	handler = MetricsMiddleware(collector, mux)(handler)
func MetricsMiddleware(collector *metrics.Collector, routes RouteMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			route := unmatchedRoute
			if routes != nil {
				if _, pattern := routes.Handler(r); pattern != "" {
					route = pattern
				}
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			collector.RecordHTTPRequest(route, rw.statusCode, time.Since(startTime))
		})
	}
}

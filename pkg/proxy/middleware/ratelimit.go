package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"mercator-hq/chatgate/pkg/gateway"
	"mercator-hq/chatgate/pkg/limits/ratelimit"
	"mercator-hq/chatgate/pkg/proxy"
	"mercator-hq/chatgate/pkg/security/auth"
	"mercator-hq/chatgate/pkg/telemetry/logging"
	"mercator-hq/chatgate/pkg/telemetry/metrics"
)

// Rate limit response headers.
const (
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
	RetryAfterHeader         = "Retry-After"
)

// AdmissionChecker decides whether a client may proceed. *gateway.Gateway
// implements it.
type AdmissionChecker interface {
	Check(clientID string) *ratelimit.CheckResult
}

// RateLimitOption configures RateLimitMiddleware.
type RateLimitOption func(*rateLimiter)

// WithRateLimitMetrics records rejected chat turns as rate_limited.
func WithRateLimitMetrics(c *metrics.Collector) RateLimitOption {
	return func(rl *rateLimiter) {
		rl.metrics = c
	}
}

// WithRateLimitLogger sets the logger.
func WithRateLimitLogger(logger *slog.Logger) RateLimitOption {
	return func(rl *rateLimiter) {
		if logger != nil {
			rl.logger = logger
		}
	}
}

// WithRateLimitPrefix limits admission checks to paths under prefix.
// Default: "/api/"
func WithRateLimitPrefix(prefix string) RateLimitOption {
	return func(rl *rateLimiter) {
		rl.prefix = prefix
	}
}

// WithTrustedProxies lets the listed peers report the client address in
// X-Forwarded-For. Without it clients are identified by RemoteAddr.
func WithTrustedProxies(trusted *proxy.TrustedProxies) RateLimitOption {
	return func(rl *rateLimiter) {
		rl.trusted = trusted
	}
}

type rateLimiter struct {
	checker AdmissionChecker
	metrics *metrics.Collector
	logger  *slog.Logger
	prefix  string
	trusted *proxy.TrustedProxies
}

// RateLimitMiddleware admits or rejects each request before it reaches a
// handler, so a rejected request never touches conversation state.
//
// This middleware:
//   - Identifies the client (API key name when authenticated, else client IP)
//   - Believes X-Forwarded-For only from trusted proxies
//   - Runs one admission check per request
//   - Sets X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
//   - Rejects with 429 and Retry-After when the window is used up
//
// It must run after authentication so that the key is known.
//
// Example:
//
//	handler = RateLimitMiddleware(service.Gateway(), WithRateLimitMetrics(collector))(handler)
func RateLimitMiddleware(checker AdmissionChecker, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := &rateLimiter{
		checker: checker,
		logger:  slog.Default(),
		prefix:  "/api/",
	}
	for _, opt := range opts {
		opt(rl)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || !strings.HasPrefix(r.URL.Path, rl.prefix) {
				next.ServeHTTP(w, r)
				return
			}

			identity := ClientIdentity(r, rl.trusted)
			ctx := logging.WithClient(r.Context(), identity)

			result := rl.checker.Check(identity)
			setLimitHeaders(w, result)

			if !result.Allowed {
				if mode := turnMode(r.URL.Path); mode != "" {
					rl.metrics.RecordTurn(mode, gateway.OutcomeRateLimited, 0, 0)
				}
				rl.logger.WarnContext(ctx, "request rejected by rate limit",
					"path", r.URL.Path,
					"retry_after", result.RetryAfter,
				)
				_ = proxy.WriteErrorResponse(w, proxy.HandleError(result.Err()))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIdentity returns the rate-limit identity of a request: the
// authenticated key's name, or the client IP when authentication is off.
// X-Forwarded-For only counts when the peer is in trusted.
func ClientIdentity(r *http.Request, trusted *proxy.TrustedProxies) string {
	if info, ok := auth.GetAPIKeyInfo(r.Context()); ok {
		return "key:" + info.Name
	}
	return "ip:" + proxy.ClientIP(r, trusted)
}

// setLimitHeaders sets rate limit headers on the response. Nothing is set
// when no limiter is configured.
func setLimitHeaders(w http.ResponseWriter, result *ratelimit.CheckResult) {
	if result.Remaining < 0 {
		return
	}

	w.Header().Set(RateLimitLimitHeader, strconv.FormatInt(result.Limit, 10))
	w.Header().Set(RateLimitRemainingHeader, strconv.FormatInt(result.Remaining, 10))
	if !result.Reset.IsZero() {
		w.Header().Set(RateLimitResetHeader, strconv.FormatInt(result.Reset.Unix(), 10))
	}

	if !result.Allowed {
		// Round up so a client that waits exactly Retry-After is admitted.
		seconds := int(math.Ceil(result.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set(RetryAfterHeader, strconv.Itoa(seconds))
	}
}

// turnMode maps a chat path to its turn mode for metrics, or "" for
// requests that are not chat turns.
func turnMode(path string) string {
	switch path {
	case "/api/chat/stream":
		return gateway.ModeStream
	case "/api/chat":
		return gateway.ModeComplete
	default:
		return ""
	}
}

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// APIKeySource defines where to extract API keys from
type APIKeySource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

// HeaderSource reads the key from a plain header such as X-API-Key.
func HeaderSource(name string) APIKeySource {
	return APIKeySource{Type: "header", Name: name}
}

// ErrorWriter writes an authentication failure. status is 401 for
// ErrMissingKey and 403 for ErrInvalidKey.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

// APIKeyMiddleware is HTTP middleware for API key authentication
type APIKeyMiddleware struct {
	validator   APIKeyStore
	sources     []APIKeySource
	writeError  ErrorWriter
	logger      *slog.Logger
	shouldCheck func(r *http.Request) bool
}

// MiddlewareOption configures an APIKeyMiddleware.
type MiddlewareOption func(*APIKeyMiddleware)

// WithErrorWriter replaces the plain-text error response.
func WithErrorWriter(fn ErrorWriter) MiddlewareOption {
	return func(m *APIKeyMiddleware) {
		if fn != nil {
			m.writeError = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *APIKeyMiddleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPathPrefix restricts authentication to paths under prefix.
func WithPathPrefix(prefix string) MiddlewareOption {
	return func(m *APIKeyMiddleware) {
		m.shouldCheck = func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, prefix)
		}
	}
}

// NewAPIKeyMiddleware creates a new API key authentication middleware
func NewAPIKeyMiddleware(validator APIKeyStore, sources []APIKeySource, opts ...MiddlewareOption) *APIKeyMiddleware {
	m := &APIKeyMiddleware{
		validator: validator,
		sources:   sources,
		logger:    slog.Default(),
		writeError: func(w http.ResponseWriter, _ *http.Request, status int, err error) {
			http.Error(w, err.Error(), status)
		},
		shouldCheck: func(*http.Request) bool { return true },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle wraps an HTTP handler with API key authentication
func (m *APIKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || !m.shouldCheck(r) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := m.extractAPIKey(r)
		if apiKey == "" {
			m.logger.WarnContext(r.Context(), "missing API key",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			m.writeError(w, r, http.StatusUnauthorized, ErrMissingKey)
			return
		}

		keyInfo, err := m.validator.Validate(apiKey)
		if err != nil {
			m.logger.WarnContext(r.Context(), "invalid API key",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			if !errors.Is(err, ErrInvalidKey) {
				err = ErrInvalidKey
			}
			m.writeError(w, r, http.StatusForbidden, err)
			return
		}

		m.logger.DebugContext(r.Context(), "API key authenticated",
			"key_name", keyInfo.Name,
			"path", r.URL.Path,
		)

		ctx := context.WithValue(r.Context(), apiKeyInfoKey, keyInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAPIKey returns the first key found in the configured sources, or
// "" when there is none.
func (m *APIKeyMiddleware) extractAPIKey(r *http.Request) string {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value == "" {
				continue
			}
			if source.Scheme == "" {
				return value
			}
			if prefix := source.Scheme + " "; strings.HasPrefix(value, prefix) {
				return strings.TrimPrefix(value, prefix)
			}

		case "query":
			if value := r.URL.Query().Get(source.Name); value != "" {
				return value
			}
		}
	}
	return ""
}

// Context key for API key info
type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const apiKeyInfoKey contextKey = "api_key_info"

// GetAPIKeyInfo retrieves API key info from request context
func GetAPIKeyInfo(ctx context.Context) (*APIKeyInfo, bool) {
	info, ok := ctx.Value(apiKeyInfoKey).(*APIKeyInfo)
	return info, ok
}

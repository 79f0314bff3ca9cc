package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// ProviderHealthHandler serves GET /health/provider: the passive health the
// provider adapter tracks from real traffic. Unlike /ready it never calls
// upstream.
type ProviderHealthHandler struct {
	provider ProviderStatus
}

// NewProviderHealthHandler creates a new provider health handler.
func NewProviderHealthHandler(p ProviderStatus) *ProviderHealthHandler {
	return &ProviderHealthHandler{provider: p}
}

// providerHealth is the body of /health/provider.
type providerHealth struct {
	Name                string     `json:"name"`
	Type                string     `json:"type"`
	Healthy             bool       `json:"healthy"`
	LastCheck           *time.Time `json:"last_check,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	TotalRequests       int64      `json:"total_requests"`
	FailedRequests      int64      `json:"failed_requests"`
}

// ServeHTTP implements http.Handler. It answers 503 while the provider is
// marked unhealthy.
func (h *ProviderHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.provider.GetHealth()

	response := providerHealth{
		Name:                h.provider.GetName(),
		Type:                h.provider.GetType(),
		Healthy:             health.IsHealthy,
		ConsecutiveFailures: health.ConsecutiveFailures,
		TotalRequests:       health.TotalRequests,
		FailedRequests:      health.FailedRequests,
	}
	if !health.LastCheck.IsZero() {
		lastCheck := health.LastCheck.UTC()
		response.LastCheck = &lastCheck
	}
	if health.LastError != nil {
		response.LastError = health.LastError.Error()
	}

	statusCode := http.StatusOK
	if !health.IsHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

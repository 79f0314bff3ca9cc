package providers

import (
	"log/slog"
	"sync"
	"time"
)

// unhealthyThreshold is the number of consecutive failures after which a
// provider is reported unhealthy.
const unhealthyThreshold = 3

// HealthTracker records request outcomes for a provider. Adapters embed it to
// implement IsHealthy and GetHealth.
type HealthTracker struct {
	name string

	mu     sync.RWMutex
	health ProviderHealth
}

// NewHealthTracker creates a tracker that starts out healthy.
func NewHealthTracker(name string) *HealthTracker {
	now := time.Now()
	return &HealthTracker{
		name: name,
		health: ProviderHealth{
			IsHealthy:             true,
			LastCheck:             now,
			LastSuccessfulRequest: now,
		},
	}
}

// IsHealthy returns the current health status.
func (h *HealthTracker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health.IsHealthy
}

// GetHealth returns detailed health information.
func (h *HealthTracker) GetHealth() ProviderHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health
}

// Record stores the outcome of one request or health check.
func (h *HealthTracker) Record(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	h.health.LastCheck = now
	h.health.TotalRequests++

	if err == nil {
		if !h.health.IsHealthy {
			slog.Info("provider marked healthy",
				"provider", h.name,
				"previous_failures", h.health.ConsecutiveFailures,
			)
		}
		h.health.IsHealthy = true
		h.health.ConsecutiveFailures = 0
		h.health.LastError = nil
		h.health.LastSuccessfulRequest = now
		return
	}

	h.health.FailedRequests++
	h.health.ConsecutiveFailures++
	h.health.LastError = err

	if h.health.IsHealthy && h.health.ConsecutiveFailures >= unhealthyThreshold {
		h.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", h.name,
			"consecutive_failures", h.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

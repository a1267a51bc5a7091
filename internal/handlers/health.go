package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	logger  domain.Logger
	version string
	nodeID  string
	storage Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(log domain.Logger, version, nodeID string, storage Pinger) *HealthHandler {
	return &HealthHandler{
		logger:  log.With(logger.Component("health")),
		version: version,
		nodeID:  nodeID,
		storage: storage,
	}
}

// Health responds to liveness checks.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"status":    domain.HealthStatusHealthy,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"node_id":   h.nodeID,
	})
}

// Readiness reports ready only when state storage answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"storage": "ok"}
	status, code := domain.HealthStatusReady, http.StatusOK

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", logger.Error(err))
		checks["storage"] = err.Error()
		status, code = domain.HealthStatusDegraded, http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dunderai/auditcore/repositories/postgres"
	"github.com/dunderai/auditcore/services/finance"
	"github.com/dunderai/auditcore/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db      *postgres.DB
	finance *finance.Service
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// verdict archive is disabled.
func NewHealthHandler(db *postgres.DB, financeSvc *finance.Service, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		finance: financeSvc,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that the dataset and archive are reachable
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.finance.Verify(ctx); err != nil {
		h.logger.Warn("dataset readiness check failed", zap.Error(err))
		checks["dataset"] = "unhealthy"
		allHealthy = false
	} else {
		checks["dataset"] = "healthy"
	}

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database readiness check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			allHealthy = false
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "disabled"
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if !allHealthy {
		response.Status = "unhealthy"
		_ = utils.WriteJSON(w, http.StatusServiceUnavailable, utils.SuccessResponse{Data: response})
		return
	}

	_ = utils.WriteOK(w, response)
}

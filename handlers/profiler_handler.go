package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dunderai/auditcore/services/specialists"
	"github.com/dunderai/auditcore/utils"
	"go.uber.org/zap"
)

// ProfilerRequest represents an email investigation request
type ProfilerRequest struct {
	Focus string `json:"focus,omitempty" validate:"omitempty,oneof=FINANCIAL SOCIAL"`
}

// ProfilerResponse carries the investigation report
type ProfilerResponse struct {
	Focus  string `json:"focus"`
	Report string `json:"report"`
}

// ProfilerHandler handles email-profiling HTTP requests
type ProfilerHandler struct {
	registry *specialists.Registry
	logger   *zap.Logger
}

// NewProfilerHandler creates a new ProfilerHandler
func NewProfilerHandler(registry *specialists.Registry, logger *zap.Logger) *ProfilerHandler {
	return &ProfilerHandler{
		registry: registry,
		logger:   logger,
	}
}

// HandleInvestigate handles POST /api/v1/profiler
func (h *ProfilerHandler) HandleInvestigate(w http.ResponseWriter, r *http.Request) {
	var req ProfilerRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
			return
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "focus must be FINANCIAL or SOCIAL", nil)
		return
	}

	focus := specialists.InvestigationFocus(req.Focus)
	if focus == "" {
		focus = specialists.FocusFinancial
	}

	investigator, err := h.registry.Investigator()
	if err != nil {
		_ = utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse{
			Error:   "profiler_unavailable",
			Message: "no investigator is registered",
		})
		return
	}

	report, err := investigator.Investigate(r.Context(), focus)
	if err != nil {
		h.logger.Error("investigation failed", zap.Error(err))
		_ = utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse{
			Error:   "investigation_failed",
			Message: "the investigation did not complete",
		})
		return
	}

	_ = utils.WriteOK(w, ProfilerResponse{Focus: string(focus), Report: report})
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/dunderai/auditcore/repositories"
	"github.com/dunderai/auditcore/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerdictHandler exposes the verdict archive
type VerdictHandler struct {
	verdicts repositories.VerdictRepository
	logger   *zap.Logger
}

// NewVerdictHandler creates a new VerdictHandler. A nil repository means
// the archive is disabled.
func NewVerdictHandler(verdicts repositories.VerdictRepository, logger *zap.Logger) *VerdictHandler {
	return &VerdictHandler{
		verdicts: verdicts,
		logger:   logger,
	}
}

// HandleList handles GET /api/v1/verdicts
func (h *VerdictHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.verdicts == nil {
		h.writeDisabled(w)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			_ = utils.WriteBadRequest(w, "limit must be between 1 and 500", nil)
			return
		}
		limit = parsed
	}

	verdicts, err := h.verdicts.GetRecent(r.Context(), limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, verdicts)
}

// HandleGet handles GET /api/v1/verdicts/{id}
func (h *VerdictHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.verdicts == nil {
		h.writeDisabled(w)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "invalid verdict ID", nil)
		return
	}

	verdict, err := h.verdicts.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, verdict)
}

func (h *VerdictHandler) writeDisabled(w http.ResponseWriter) {
	_ = utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse{
		Error:   "archive_disabled",
		Message: "the verdict archive is not configured",
	})
}

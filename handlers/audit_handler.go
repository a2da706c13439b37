package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dunderai/auditcore/services/orchestrator"
	"github.com/dunderai/auditcore/utils"
	"go.uber.org/zap"
)

// AuditRequest represents a top-level audit request
type AuditRequest struct {
	Request string `json:"request" validate:"required,min=3"`
}

// AuditHandler handles audit workflow HTTP requests
type AuditHandler struct {
	orchestrator *orchestrator.Service
	logger       *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(orch *orchestrator.Service, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		orchestrator: orch,
		logger:       logger,
	}
}

// HandleRunAudit handles POST /api/v1/audit
func (h *AuditHandler) HandleRunAudit(w http.ResponseWriter, r *http.Request) {
	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		fields := map[string]interface{}{}
		for k, v := range utils.GetValidationFields(err) {
			fields[k] = v
		}
		_ = utils.WriteBadRequest(w, "validation failed", fields)
		return
	}

	verdict, err := h.orchestrator.RunAudit(r.Context(), req.Request)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("audit completed",
		zap.String("verdict_id", verdict.ID.String()),
		zap.String("workflow", string(verdict.Workflow)))
	_ = utils.WriteOK(w, verdict)
}

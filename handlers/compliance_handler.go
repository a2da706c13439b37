package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/services/broker"
	"github.com/dunderai/auditcore/utils"
	"go.uber.org/zap"
)

// ComplianceRequest represents a policy question
type ComplianceRequest struct {
	Question string `json:"question" validate:"required,min=3"`
}

// ComplianceHandler handles compliance check HTTP requests. Questions
// travel through the broker so they land in the message log like any
// other inter-agent exchange.
type ComplianceHandler struct {
	broker *broker.Broker
	logger *zap.Logger
}

// NewComplianceHandler creates a new ComplianceHandler
func NewComplianceHandler(b *broker.Broker, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		broker: b,
		logger: logger,
	}
}

// HandleCheck handles POST /api/v1/compliance
func (h *ComplianceHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req ComplianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "question is required", nil)
		return
	}

	resp := h.broker.Send(r.Context(), models.AgentOrchestrator, models.AgentCompliance,
		models.CompliancePayload{Question: req.Question})
	if resp.Status == models.StatusError {
		_ = utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse{
			Error:   "compliance_check_failed",
			Message: resp.Error,
		})
		return
	}

	_ = utils.WriteOK(w, resp.Response)
}

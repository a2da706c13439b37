package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dunderai/auditcore/services/finance"
	"github.com/dunderai/auditcore/utils"
	"go.uber.org/zap"
)

// FinanceQueryRequest represents a snippet evaluation request
type FinanceQueryRequest struct {
	Query  string `json:"query" validate:"required"`
	Source string `json:"source,omitempty"`
}

// FinanceScanRequest represents a fraud pattern scan request
type FinanceScanRequest struct {
	Source string `json:"source,omitempty"`
}

// FinanceQueryResponse carries the textual evaluation result
type FinanceQueryResponse struct {
	Query  string `json:"query"`
	Result string `json:"result"`
}

// FinanceHandler handles finance toolset HTTP requests
type FinanceHandler struct {
	finance *finance.Service
	logger  *zap.Logger
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(financeSvc *finance.Service, logger *zap.Logger) *FinanceHandler {
	return &FinanceHandler{
		finance: financeSvc,
		logger:  logger,
	}
}

// HandleQuery handles POST /api/v1/finance/query
func (h *FinanceHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req FinanceQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "query is required", nil)
		return
	}

	result, err := h.finance.Execute(r.Context(), req.Source, req.Query)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, FinanceQueryResponse{Query: req.Query, Result: result})
}

// HandleScan handles POST /api/v1/finance/scan
func (h *FinanceHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req FinanceScanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
			return
		}
	}

	findings, err := h.finance.Scan(r.Context(), req.Source)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, findings)
}

// HandlePreview handles GET /api/v1/finance/preview
func (h *FinanceHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.finance.Preview(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, preview)
}

// HandleStatistics handles GET /api/v1/finance/statistics
func (h *FinanceHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.finance.Statistics(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]string{"statistics": stats})
}

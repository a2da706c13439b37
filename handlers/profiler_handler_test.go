package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dunderai/auditcore/services/specialists"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProfilerHandler_HandleInvestigate(t *testing.T) {
	t.Run("empty body defaults to financial focus", func(t *testing.T) {
		inv := &stubInvestigator{report: "Found a suspicious transfer of $450.00."}
		handler := NewProfilerHandler(newTestRegistry(inv, nil), zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/profiler", nil)
		rec := httptest.NewRecorder()

		handler.HandleInvestigate(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data ProfilerResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "FINANCIAL", resp.Data.Focus)
		assert.Equal(t, inv.report, resp.Data.Report)
		assert.Equal(t, []specialists.InvestigationFocus{specialists.FocusFinancial}, inv.focuses)
	})

	t.Run("explicit social focus is honored", func(t *testing.T) {
		inv := &stubInvestigator{report: "Michael planned an off-site party."}
		handler := NewProfilerHandler(newTestRegistry(inv, nil), zap.NewNop())

		body, _ := json.Marshal(ProfilerRequest{Focus: "SOCIAL"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/profiler", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleInvestigate(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []specialists.InvestigationFocus{specialists.FocusSocial}, inv.focuses)
	})

	t.Run("unknown focus returns 400", func(t *testing.T) {
		handler := NewProfilerHandler(newTestRegistry(&stubInvestigator{}, nil), zap.NewNop())

		body, _ := json.Marshal(ProfilerRequest{Focus: "PARANORMAL"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/profiler", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleInvestigate(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no registered investigator returns 503", func(t *testing.T) {
		handler := NewProfilerHandler(newTestRegistry(nil, nil), zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/profiler", nil)
		rec := httptest.NewRecorder()

		handler.HandleInvestigate(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "profiler_unavailable")
	})

	t.Run("investigator failure maps to 502 without leaking the cause", func(t *testing.T) {
		inv := &stubInvestigator{err: errors.New("mailbox index offline")}
		handler := NewProfilerHandler(newTestRegistry(inv, nil), zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/profiler", nil)
		rec := httptest.NewRecorder()

		handler.HandleInvestigate(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "mailbox index offline")
	})
}

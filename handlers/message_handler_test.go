package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dunderai/auditcore/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMessageHandler_HandleList(t *testing.T) {
	financeSvc := newTestFinance(t, writeExpenseCSV(t))
	comp := &stubCompliance{answer: "That is fine."}
	b := newTestBroker(t, financeSvc, newTestRegistry(nil, comp))
	handler := NewMessageHandler(b, zap.NewNop())

	t.Run("empty log", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data []json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data)
	})

	t.Run("each exchange shows up twice", func(t *testing.T) {
		b.Send(context.Background(), models.AgentOrchestrator, models.AgentCompliance,
			models.CompliancePayload{Question: "Can Kevin expense chili supplies?"})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil)
		rec := httptest.NewRecorder()

		handler.HandleList(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data []struct {
				Direction models.LogDirection `json:"direction"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		assert.Equal(t, models.DirectionSent, resp.Data[0].Direction)
		assert.Equal(t, models.DirectionReceived, resp.Data[1].Direction)
	})
}

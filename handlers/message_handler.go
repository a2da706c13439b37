package handlers

import (
	"net/http"

	"github.com/dunderai/auditcore/services/broker"
	"github.com/dunderai/auditcore/utils"
	"go.uber.org/zap"
)

// MessageHandler exposes the broker's message log
type MessageHandler struct {
	broker *broker.Broker
	logger *zap.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(b *broker.Broker, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		broker: b,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/messages
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, h.broker.Log())
}

package handlers

import (
	"net/http"

	"github.com/dunderai/auditcore/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses and keeps the
// handlers thin.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	if writeErr := utils.WriteDomainError(w, err); writeErr != nil {
		logger.Error("failed to write error response",
			zap.Error(writeErr),
			zap.NamedError("cause", err))
	}
}

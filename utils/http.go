package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dunderai/auditcore/services"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with optional data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteCreated writes a 201 Created response with optional data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteBadRequest writes a 400 Bad Request response with error details
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: message,
		Details: details,
	})
}

// WriteUnauthorized writes a 401 Unauthorized response
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Authentication required"
	}
	return WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: message,
	})
}

// WriteDomainError maps a service error onto the HTTP surface. Unknown
// errors collapse to a generic 500 so internals never leak.
func WriteDomainError(w http.ResponseWriter, err error) error {
	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		return WriteInternalServerError(w, "")
	}

	status := http.StatusInternalServerError
	switch domainErr.Type {
	case services.ErrorTypeValidation:
		status = http.StatusBadRequest
	case services.ErrorTypeNotFound, services.ErrorTypeRouting:
		status = http.StatusNotFound
	case services.ErrorTypeUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorTypeSecurityViolation, services.ErrorTypeEvaluation:
		status = http.StatusUnprocessableEntity
	case services.ErrorTypeDataSource, services.ErrorTypeExternal:
		status = http.StatusBadGateway
	}

	return WriteJSON(w, status, ErrorResponse{
		Error:   string(domainErr.Type),
		Message: domainErr.Message,
	})
}

package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypeDataSource        ErrorType = "data_source"
	ErrorTypeSecurityViolation ErrorType = "security_violation"
	ErrorTypeEvaluation        ErrorType = "evaluation"
	ErrorTypeRouting           ErrorType = "routing"
	ErrorTypeHandler           ErrorType = "handler"
	ErrorTypeInternal          ErrorType = "internal"
	ErrorTypeExternal          ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Data Source Errors (fatal to the calling operation, never retried here)
	ErrSourceUnreachable = NewDomainError(ErrorTypeDataSource, "dataset source unreachable", nil)
	ErrSourceMalformed   = NewDomainError(ErrorTypeDataSource, "dataset source malformed", nil)
	ErrSourceEmpty       = NewDomainError(ErrorTypeDataSource, "dataset has no data rows", nil)

	// Evaluator Errors
	ErrSnippetRejected = NewDomainError(ErrorTypeSecurityViolation, "snippet rejected by security pre-check", nil)
	ErrSnippetFailed   = NewDomainError(ErrorTypeEvaluation, "snippet evaluation failed", nil)

	// Broker Errors
	ErrUnknownRecipient = NewDomainError(ErrorTypeRouting, "unknown recipient agent", nil)
	ErrHandlerFailed    = NewDomainError(ErrorTypeHandler, "handler failed to build response", nil)

	// Validation Errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyRequest = NewDomainError(ErrorTypeValidation, "request text cannot be empty", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)

	// Not Found Errors
	ErrVerdictNotFound = NewDomainError(ErrorTypeNotFound, "verdict not found", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)

	// External Specialist Errors
	ErrSpecialistUnavailable = NewDomainError(ErrorTypeExternal, "specialist agent unavailable", nil)
	ErrSpecialistTimeout     = NewDomainError(ErrorTypeExternal, "specialist agent timeout", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsDataSourceError checks if an error is a data source error
func IsDataSourceError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeDataSource
	}
	return false
}

// IsSecurityViolation checks if an error is a snippet security rejection
func IsSecurityViolation(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeSecurityViolation
	}
	return false
}

// IsRoutingError checks if an error is a routing error
func IsRoutingError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeRouting
	}
	return false
}

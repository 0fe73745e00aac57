// Package services sits between the HTTP handlers and the analytics engine.
// It converts request payloads to series, applies configured defaults, runs
// the engine and records metrics and alerts.
package services

import (
	"errors"

	"github.com/soltixdb/insights/internal/analytics"
)

// Error codes returned to API clients
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeEmptyInput       = "EMPTY_INPUT"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeInvalidWindow    = "INVALID_WINDOW"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeAnalyticsFailed  = "ANALYTICS_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// FromAnalyticsError maps engine sentinels onto service error codes.
// A *ServiceError is returned unchanged and nil maps to nil.
func FromAnalyticsError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return NewServiceError(ErrorCode(err), err.Error())
}

// ErrorCode returns the service code for an engine error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, analytics.ErrEmptyInput):
		return CodeEmptyInput
	case errors.Is(err, analytics.ErrInsufficientData):
		return CodeInsufficientData
	case errors.Is(err, analytics.ErrInvalidWindow):
		return CodeInvalidWindow
	case errors.Is(err, analytics.ErrInvalidParameter):
		return CodeInvalidParameter
	default:
		return CodeAnalyticsFailed
	}
}

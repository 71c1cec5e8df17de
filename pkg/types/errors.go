package types

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeContention ErrorType = "contention"
	ErrorTypeExternal   ErrorType = "external"
	ErrorTypeInternal   ErrorType = "internal"
)

// FrontdeskError represents a structured error in the front-desk service
type FrontdeskError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *FrontdeskError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *FrontdeskError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *FrontdeskError {
	return &FrontdeskError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *FrontdeskError {
	return &FrontdeskError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewContentionError creates a new contention error for lost conditional updates
func NewContentionError(code, message string) *FrontdeskError {
	return &FrontdeskError{
		Type:    ErrorTypeContention,
		Code:    code,
		Message: message,
	}
}

// NewExternalError creates a new error for a failed collaborator call
func NewExternalError(code, message string, cause error) *FrontdeskError {
	return &FrontdeskError{
		Type:    ErrorTypeExternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *FrontdeskError {
	return &FrontdeskError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeContention    = "ASSIGNMENT_CONTENTION"
	ErrCodeExternalError = "EXTERNAL_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

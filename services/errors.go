package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeConfiguration  ErrorType = "configuration"
	ErrorTypeClassification ErrorType = "classification"
	ErrorTypeExecution      ErrorType = "execution"
	ErrorTypeInternal       ErrorType = "internal"
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
	return e.Type == t.Type && (t.Message == "" || e.Message == t.Message)
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

// Sentinels for errors.Is. Never mutate them; build fresh errors with the New* helpers.
var (
	ErrPromptRequired       = NewDomainError(ErrorTypeValidation, "Prompt is required", nil)
	ErrModelRequired        = NewDomainError(ErrorTypeValidation, "Selected model is required", nil)
	ErrUnknownModel         = NewDomainError(ErrorTypeValidation, "Unknown model", nil)
	ErrUnknownRegion        = NewDomainError(ErrorTypeValidation, "Unknown region", nil)
	ErrOpenRouterKeyMissing = NewDomainError(ErrorTypeConfiguration, "OpenRouter API key is not configured", nil)
	ErrClassifierKeyMissing = NewDomainError(ErrorTypeConfiguration, "OpenAI API key is not configured", nil)
	ErrClassificationFailed = NewDomainError(ErrorTypeClassification, "", nil)
	ErrExecutionFailed      = NewDomainError(ErrorTypeExecution, "", nil)
	ErrInternal             = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// NewValidationError builds a validation error
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, nil)
}

// NewConfigurationError builds a configuration error
func NewConfigurationError(message string) *DomainError {
	return NewDomainError(ErrorTypeConfiguration, message, nil)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsConfigurationError checks if an error is a missing/invalid configuration error
func IsConfigurationError(err error) bool {
	return GetErrorType(err) == ErrorTypeConfiguration
}

// IsClassificationError checks if an error is a classification error
func IsClassificationError(err error) bool {
	return GetErrorType(err) == ErrorTypeClassification
}

// IsExecutionError checks if an error is a single-route execution error
func IsExecutionError(err error) bool {
	return GetErrorType(err) == ErrorTypeExecution
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the caller-facing message of a domain error
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

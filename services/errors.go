package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	// ErrorTypeValidation: malformed input. The only category surfaced as a
	// non-success response at the API boundary.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeRetrieval: vector index or embedding provider failure.
	// Recovered locally by answering ungrounded.
	ErrorTypeRetrieval ErrorType = "retrieval"

	// ErrorTypeProvider: a completion model errored. Recovered locally by a
	// single fallback attempt.
	ErrorTypeProvider ErrorType = "provider"

	// ErrorTypeUnavailable: primary and fallback both failed. Surfaced as an
	// in-band error sentence, not an HTTP error.
	ErrorTypeUnavailable ErrorType = "unavailable"

	// ErrorTypePersistence: audit-record write failure. Logged, never
	// surfaced, never retried.
	ErrorTypePersistence ErrorType = "persistence"

	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeInternal ErrorType = "internal"
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

var (
	ErrInvalidInput          = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrRetrievalUnavailable  = NewDomainError(ErrorTypeRetrieval, "retrieval unavailable", nil)
	ErrGenerationFailed      = NewDomainError(ErrorTypeProvider, "completion model failed", nil)
	ErrGenerationUnavailable = NewDomainError(ErrorTypeUnavailable, "all completion models failed", nil)
	ErrRecordNotFound        = NewDomainError(ErrorTypeNotFound, "answer record not found", nil)
)

// GetErrorType extracts the ErrorType from an error, defaulting to internal
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

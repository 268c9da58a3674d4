package utils

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeNoInput       ErrorType = "no_input"
	ErrorTypeStageFailure  ErrorType = "stage_failure"
	ErrorTypeUnexpected    ErrorType = "unexpected"
)

// AppError represents an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new application error
func NewError(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, cause error) *AppError {
	return NewError(ErrorTypeConfiguration, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string, cause error) *AppError {
	return NewError(ErrorTypeNotFound, message, cause)
}

// NewNoInputError creates a missing input error
func NewNoInputError(message string, cause error) *AppError {
	return NewError(ErrorTypeNoInput, message, cause)
}

// NewStageFailureError creates a stage failure naming the failing stage
func NewStageFailureError(stage string, cause error) *AppError {
	return NewError(ErrorTypeStageFailure,
		fmt.Sprintf("error occurred while running %s", stage), cause).
		WithContext("stage", stage)
}

// NewUnexpectedError creates an error for any other orchestration fault
func NewUnexpectedError(message string, cause error) *AppError {
	return NewError(ErrorTypeUnexpected, message, cause)
}

// WrapError wraps an existing error with additional context
func WrapError(err error, errorType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the original type unless explicitly overridden
	var appErr *AppError
	if errors.As(err, &appErr) && errorType == "" {
		return &AppError{
			Type:    appErr.Type,
			Message: message + ": " + appErr.Message,
			Cause:   appErr.Cause,
			Context: appErr.Context,
		}
	}

	if errorType == "" {
		errorType = ErrorTypeUnexpected
	}

	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// GetErrorType extracts the error type from an error
func GetErrorType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnexpected
}

// IsErrorType reports whether err carries the given type anywhere in its chain
func IsErrorType(err error, errorType ErrorType) bool {
	return errors.Is(err, &AppError{Type: errorType})
}

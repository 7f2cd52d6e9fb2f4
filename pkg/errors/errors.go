package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType classifies an AppError. The set is limited to what the
// service actually raises: validation and lookup failures from the
// request path, conflicts from conditional writes and advisory locks,
// and database/external failures from DynamoDB and EventBridge.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL"
	ErrorTypeDatabase   ErrorType = "DATABASE"
	ErrorTypeExternal   ErrorType = "EXTERNAL"
)

// AppError carries a typed error through the command and query layers up
// to the HTTP boundary, where Type and HTTPStatus pick the response.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
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

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeDatabase,
		Message:    fmt.Sprintf("database operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewExternalError creates an external service error
func NewExternalError(service string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    fmt.Sprintf("external service '%s' error", service),
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
		StackTrace: captureStackTrace(),
	}
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// Package errors provides the coded error type shared by the store, the
// generation pipeline and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the category of a failure.
type ErrorCode string

const (
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrStore        ErrorCode = "STORE_ERROR"
	ErrCommitSource ErrorCode = "COMMIT_SOURCE_FAILED"

	// ErrConfiguration means a credential or service setting is missing.
	// The user has to configure something; retrying will not help.
	ErrConfiguration ErrorCode = "NOT_CONFIGURED"

	// ErrGeneration means the upstream text-generation call failed.
	ErrGeneration ErrorCode = "GENERATION_FAILED"
)

// AppError represents an application error with code and message.
// Status holds the upstream HTTP status for outbound call failures, 0 otherwise.
type AppError struct {
	Code    ErrorCode
	Message string
	Status  int
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (upstream status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation reports malformed or missing caller input.
func Validation(format string, args ...interface{}) *AppError {
	return New(ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound reports a referenced entity that does not exist.
func NotFound(format string, args ...interface{}) *AppError {
	return New(ErrNotFound, fmt.Sprintf(format, args...))
}

// Configuration reports a missing credential or setting.
func Configuration(message string) *AppError {
	return New(ErrConfiguration, message)
}

// Generation reports a failed text-generation call. status is the upstream
// HTTP status, or 0 when no response was received.
func Generation(status int, message string, err error) *AppError {
	return &AppError{
		Code:    ErrGeneration,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// CommitSource reports a failed commit-source call.
func CommitSource(status int, message string, err error) *AppError {
	return &AppError{
		Code:    ErrCommitSource,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Store reports a failed persistence operation.
func Store(message string, err error) *AppError {
	return Wrap(ErrStore, message, err)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error, or any error it wraps, carries a specific code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// CodeOf returns the code of err, or ErrInternal when err is not an AppError.
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrInternal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code returned to API callers.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConfiguration:
		return http.StatusServiceUnavailable
	case ErrGeneration, ErrCommitSource:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

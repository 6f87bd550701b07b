package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced to API callers.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalidInput
	KindUpstreamFailure
	KindInsufficientData
)

// String returns the kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindUpstreamFailure:
		return "upstream_failure"
	case KindInsufficientData:
		return "insufficient_data"
	default:
		return "internal"
	}
}

// AppError is an error with a kind and a caller-facing message.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error returns the caller-facing message, followed by the cause when present.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates an InvalidInput error with a specific message.
func NewValidationError(message string) error {
	return &AppError{Kind: KindInvalidInput, Message: message}
}

// NewValidationErrorf creates an InvalidInput error with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &AppError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports that a backing resource does not exist.
func NewNotFoundError(message string, cause error) error {
	return &AppError{Kind: KindNotFound, Message: message, Err: cause}
}

// NewUpstreamError reports that a third-party call failed or timed out.
func NewUpstreamError(source string, cause error) error {
	return &AppError{Kind: KindUpstreamFailure, Message: fmt.Sprintf("upstream %s failed", source), Err: cause}
}

// NewInsufficientDataErrorf reports that a computation lacks input points.
func NewInsufficientDataErrorf(format string, args ...interface{}) error {
	return &AppError{Kind: KindInsufficientData, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindInsufficientData:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

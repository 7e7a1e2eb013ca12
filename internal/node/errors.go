package node

import (
	"errors"
	"fmt"
)

// ErrorType classifies adapter errors.
type ErrorType string

const (
	// ErrorTypeAuth indicates a missing or unusable credential.
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeAPI indicates a remote 4xx/5xx response or a transport failure.
	ErrorTypeAPI ErrorType = "api"

	// ErrorTypeOperation indicates a malformed or missing parameter, or an
	// unknown resource/operation.
	ErrorTypeOperation ErrorType = "operation"
)

// Error is the error type every adapter returns.
//
// Error() yields the original message unchanged so the text surfaced to users
// (and written into {error: ...} items) is what the remote service or the
// validation step reported.
type Error struct {
	// Type classifies the error
	Type ErrorType

	// Message is the original error message
	Message string

	// Description carries optional detail, such as the remote response body
	Description string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// RequestID from the external service
	RequestID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewAuthError creates an authentication error.
func NewAuthError(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeAuth, Message: fmt.Sprintf(format, args...)}
}

// NewOperationError creates an error for invalid parameters or dispatch.
func NewOperationError(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeOperation, Message: fmt.Sprintf(format, args...)}
}

// NewAPIError wraps err as an API error. The original message is preserved.
// An err that already is an *Error is returned as is.
func NewAPIError(err error) *Error {
	var nerr *Error
	if errors.As(err, &nerr) {
		return nerr
	}
	return &Error{Type: ErrorTypeAPI, Message: err.Error(), Cause: err}
}

// IsType reports whether err is a node *Error of type t.
func IsType(err error, t ErrorType) bool {
	var nerr *Error
	return errors.As(err, &nerr) && nerr.Type == t
}

// UnknownOperation reports an operation the adapter does not support.
func UnknownOperation(resource, operation string) *Error {
	if resource == "" {
		return NewOperationError("the operation %q is not known", operation)
	}
	return NewOperationError("the operation %q is not known for resource %q", operation, resource)
}

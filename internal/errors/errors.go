package errors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that need to map it to a transport
// or UI concern without parsing messages.
type Code string

const (
	ErrCodeInternal     Code = "INTERNAL"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeConflict     Code = "CONFLICT"
)

// Error is the service error type. It carries a code, a human-readable
// message and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an existing error with a code and message.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// InvalidInput reports a rejected input field.
func InvalidInput(field, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf("%s: %s", field, message),
	}
}

// Unauthorized reports an action the actor is not permitted to perform.
func Unauthorized(message string) *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: message}
}

// Conflict reports a state conflict (stale value, illegal status, ...).
func Conflict(message string) *Error {
	return &Error{Code: ErrCodeConflict, Message: message}
}

// CodeOf extracts the code from an error chain, defaulting to INTERNAL.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// Is delegates to the standard library for chain comparison.
func Is(err, target error) bool { return errors.Is(err, target) }

// As delegates to the standard library for chain unwrapping.
func As(err error, target any) bool { return errors.As(err, target) }

// Package domainerrors carries the error taxonomy shared by services and transports.
//
// Services return *Error values built with New or Wrap. Transports translate the
// code into a status; the message is already written for the end user and is
// surfaced verbatim (except for CodeInternal, whose message is withheld).
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks malformed or missing input (missing justification, bad CURP).
	CodeValidation Code = "validation_error"
	// CodeConflict marks an invariant violation against existing state
	// (duplicate enrollment, concurrent active study, washout not elapsed).
	CodeConflict Code = "conflict"
	// CodeNotFound marks a reference to a record that does not exist.
	CodeNotFound Code = "not_found"

	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is the concrete domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a domain error with a user-facing message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// As returns the outermost domain error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost domain error in err carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// Message returns the user-facing message of err.
func Message(err error) string {
	if de, ok := As(err); ok {
		return de.Message
	}
	return err.Error()
}

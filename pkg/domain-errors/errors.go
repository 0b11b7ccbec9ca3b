// Package domainerrors provides coded error values shared across domains.
//
// Services wrap low-level failures with a Code so transport layers can map
// errors to responses without inspecting error strings:
//
//	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load source config")
//
// Handlers check codes with HasCode and never branch on message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and logging.
type Code string

const (
	CodeInternal     Code = "internal_error"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeUnavailable  Code = "unavailable"
	CodeRateLimited  Code = "rate_limited"
	CodeTimeout      Code = "timeout"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
)

// Error is a coded domain error. It wraps an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error.
// Returns nil if err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain,
// or CodeInternal when the error carries no code.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

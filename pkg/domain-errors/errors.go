// Package domainerrors provides coded errors shared by services and transports.
//
// Services return *Error values carrying a Code (and, for validation failures, a
// stable Reason) so handlers can map them to HTTP statuses and callers can
// render specific messages without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeDependency         Code = "dependency_unavailable"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. Reason is an optional machine-readable
// sub-code (e.g. "reason-too-short") that is stable across releases.
type Error struct {
	Code    Code
	Reason  string
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

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// NewReason creates a coded error with a stable reason sub-code.
func NewReason(code Code, reason, msg string) *Error {
	return &Error{Code: code, Reason: reason, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias for HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ReasonOf returns the first non-empty reason in err's chain.
func ReasonOf(err error) string {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return ""
		}
		if de.Reason != "" {
			return de.Reason
		}
		err = de.Err
	}
	return ""
}

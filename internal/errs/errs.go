// Package errs provides coded application errors shared by the outbound
// clients (QuickBase, Bot Framework) and the HTTP layer that maps them to
// status codes.
package errs

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown      = "UNKNOWN"
	CodeAPI          = "API"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeValidation   = "VALIDATION"
)

// Error is a coded error with an optional cause.
type Error struct {
	code    string
	message string
	status  int
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() string { return e.code }

// Status returns the upstream HTTP status code, or 0 when the error did not
// come from an HTTP response.
func (e *Error) Status() int { return e.status }

func (e *Error) Unwrap() error { return e.err }

// Code returns the code of the first coded error in err's chain,
// or CodeUnknown if there is none.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// Status returns the upstream HTTP status of the first coded error in err's chain.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.status
	}
	return 0
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return Code(err) == code
}

// New creates a coded error.
func New(code, message string, cause error) error {
	return &Error{code: code, message: message, err: cause}
}

// NewAPIError creates an error for a failed upstream call. status is the HTTP
// status code returned by the upstream service, or 0 for transport failures.
func NewAPIError(message string, status int, cause error) error {
	code := CodeAPI
	switch status {
	case 401, 403:
		code = CodeUnauthorized
	case 404:
		code = CodeNotFound
	}
	return &Error{code: code, message: message, status: status, err: cause}
}

func NewNotFoundError(message string, cause error) error {
	return New(CodeNotFound, message, cause)
}

func NewUnauthorizedError(message string, cause error) error {
	return New(CodeUnauthorized, message, cause)
}

func NewValidationError(message string, cause error) error {
	return New(CodeValidation, message, cause)
}

package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeValidation Code = "validation_failed"
	CodeInternal   Code = "internal_error"
	CodeForbidden  Code = "forbidden"

	// Authentication and abuse-prevention codes. These are deliberately
	// coarse: a caller is never told whether a credential failed on
	// signature, issuer, or expiry.
	CodeCredentialInvalid     Code = "credential_invalid"
	CodeAccountLocked         Code = "account_locked"
	CodeAuthenticationFailed  Code = "authentication_failed"
	CodeTooManyRequests       Code = "too_many_requests"
	CodeCredentialPersistence Code = "credential_persistence"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error

	// Fields carries a field -> message mapping for validation failures.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// NewValidation creates a validation error carrying per-field messages.
func NewValidation(fields map[string]string) error {
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

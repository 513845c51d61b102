package models

import (
	"errors"
	"fmt"
)

// ErrorCode is the coarse failure taxonomy shared across the system.
type ErrorCode string

const (
	// ErrNotFound means identity resolution failed; terminal.
	ErrNotFound ErrorCode = "not_found"
	// ErrValidation means the input was malformed; rejected before any work.
	ErrValidation ErrorCode = "validation_error"
	// ErrQuotaExceeded means the admission controller denied the request.
	ErrQuotaExceeded ErrorCode = "quota_exceeded"
	// ErrProvider means an upstream adapter failed or timed out.
	ErrProvider ErrorCode = "provider_error"
	// ErrPartialTier means a tier sub-computation failed; non-fatal.
	ErrPartialTier ErrorCode = "partial_tier_failure"
)

// Error is the uniform error shape crossing component boundaries.
type Error struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds an Error wrapping an optional cause.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the taxonomy code from any error, defaulting to
// ErrProvider for untyped failures.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrProvider
}

// IsNotFound reports whether err is terminal identity-resolution failure.
func IsNotFound(err error) bool { return CodeOf(err) == ErrNotFound }

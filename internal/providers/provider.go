package providers

import (
	"errors"
	"fmt"
)

// Error codes shared by all adapters.
const (
	CodeTimeout     = "timeout"
	CodeNetwork     = "network_error"
	CodeHTTP        = "http_error"
	CodeRateLimited = "rate_limited"
	CodeNotFound    = "not_found"
	CodeDecode      = "decode_error"
)

// Error is the uniform failure shape every adapter returns. The core treats
// any adapter as potentially absent or slow and never assumes success.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an adapter error.
func NewError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail attaches a detail field and returns the error for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Retryable reports whether the failure is transient enough that an
// idempotent read may be retried.
func Retryable(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Code {
	case CodeTimeout, CodeNetwork, CodeRateLimited:
		return true
	case CodeHTTP:
		if status, ok := pe.Details["status"].(int); ok {
			return status >= 500
		}
		return false
	default:
		return false
	}
}

// IsNotFound reports whether an adapter failure means the resource does not
// exist upstream, as opposed to a transient fault.
func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == CodeNotFound
}

// StatusError builds an http_error carrying the response status.
func StatusError(status int, url string) *Error {
	code := CodeHTTP
	switch {
	case status == 404:
		code = CodeNotFound
	case status == 429:
		code = CodeRateLimited
	}
	return NewError(code, "request to %s returned status %d", url, status).
		WithDetail("status", status).
		WithDetail("url", url)
}

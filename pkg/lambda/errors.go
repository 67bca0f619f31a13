package lambda

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is an error a handler returns to answer with a specific status.
// The dispatcher renders it as a JSON body {"message", "details"}.
type HTTPError struct {
	StatusCode int
	Message    string
	Headers    map[string]string
	Details    any
	Cause      error
}

// ErrorOption customizes an HTTPError
type ErrorOption func(*HTTPError)

// WithCause records the underlying error
func WithCause(err error) ErrorOption {
	return func(e *HTTPError) {
		e.Cause = err
	}
}

// WithHeaders adds response headers
func WithHeaders(headers map[string]string) ErrorOption {
	return func(e *HTTPError) {
		e.Headers = headers
	}
}

// WithDetails attaches arbitrary details serialized next to the message
func WithDetails(details any) ErrorOption {
	return func(e *HTTPError) {
		e.Details = details
	}
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, message string, opts ...ErrorOption) *HTTPError {
	e := &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// Unwrap returns the underlying error
func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// AsHTTPError finds the first HTTPError in err's chain
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// BadRequest creates a 400 HTTPError
func BadRequest(message string, opts ...ErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

// Unauthorized creates a 401 HTTPError
func Unauthorized(message string, opts ...ErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

// Forbidden creates a 403 HTTPError
func Forbidden(message string, opts ...ErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

// NotFound creates a 404 HTTPError
func NotFound(message string, opts ...ErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

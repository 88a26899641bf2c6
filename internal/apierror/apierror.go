// Package apierror carries an HTTP status alongside a client-facing message.
package apierror

import (
	"errors"
	"net/http"
)

const genericMessage = "Something went wrong"

// Error is returned by services when a request must fail with a specific status.
// Err holds the underlying cause and is never shown to clients.
type Error struct {
	StatusCode int
	Message    string
	Errors     []string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(status int, message string) *Error {
	return &Error{StatusCode: status, Message: message}
}

// BadRequest optionally lists the individual validation failures.
func BadRequest(message string, details ...string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Message: message, Errors: details}
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	if message == "" {
		message = genericMessage
	}
	return &Error{StatusCode: http.StatusInternalServerError, Message: message, Err: err}
}

// From converts any error into an *Error, falling back to a generic 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(genericMessage, err)
}

// StatusCode returns the HTTP status for err, 500 for anything unclassified.
func StatusCode(err error) int {
	return From(err).StatusCode
}

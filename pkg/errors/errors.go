// Package errors defines the structured application errors used across the
// relay service. Each error carries a machine-readable code (what clients see
// in the "error" field) and the HTTP status it maps to.
package errors

import (
	"fmt"
	"net/http"
)

// Error codes surfaced to clients.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidSessionID = "invalid_session_id"
	CodeSessionExists    = "session_already_exists"
	CodeRateLimited      = "rate_limited"
	CodeStorage          = "storage_error"
	CodeConfiguration    = "configuration_error"
	CodeCommunication    = "communication_error"
	CodeUnknownProvider  = "unknown_provider"
	CodeNotImplemented   = "not_implemented"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNotFound         = "not_found"
	CodeInternal         = "internal_error"
)

// AppError is a structured application error.
type AppError struct {
	// Code is the machine-readable error code returned to clients.
	Code string
	// Status is the HTTP status the error maps to.
	Status int
	// Message is a human-readable description, safe to return to clients.
	Message string

	cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of the error with the given cause attached.
// Copying keeps the predefined constructors safe to share.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.cause = cause
	return &clone
}

// New creates an AppError with the given code, HTTP status and message.
func New(code string, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

// ErrInvalidRequest reports a malformed or incomplete request.
func ErrInvalidRequest(message string) *AppError {
	return New(CodeInvalidRequest, http.StatusBadRequest, message)
}

// ErrInvalidJSON reports an unparseable JSON request body.
func ErrInvalidJSON() *AppError {
	return New(CodeInvalidJSON, http.StatusBadRequest, "request body is not valid JSON")
}

// ErrInvalidSessionID reports a session id that is not a 64-character
// lowercase hex string.
func ErrInvalidSessionID() *AppError {
	return New(CodeInvalidSessionID, http.StatusBadRequest, "session_id must be a 64-character lowercase hex string")
}

// ErrSessionExists reports a registration conflict: a live session with the
// same id is already present. The client must generate a fresh id.
func ErrSessionExists() *AppError {
	return New(CodeSessionExists, http.StatusConflict, "a session with this id is already registered")
}

// ErrRateLimited reports that the per-IP budget for an endpoint class is
// exhausted for the current window.
func ErrRateLimited() *AppError {
	return New(CodeRateLimited, http.StatusTooManyRequests, "too many requests, please try again later")
}

// ErrStorage reports that the KV dependency failed. Transient for this
// request; the server never retries internally.
func ErrStorage(cause error) *AppError {
	return New(CodeStorage, http.StatusInternalServerError, "storage backend unavailable").WithCause(cause)
}

// ErrConfiguration reports missing or invalid server-side configuration,
// such as absent provider credentials.
func ErrConfiguration(message string) *AppError {
	return New(CodeConfiguration, http.StatusInternalServerError, message)
}

// ErrExchangeFailed surfaces a provider-reported exchange failure. The
// provider's own error code is passed through verbatim.
func ErrExchangeFailed(providerError string) *AppError {
	return New(providerError, http.StatusBadRequest, "token exchange rejected by provider")
}

// ErrCommunication reports a network or parse failure talking to a provider.
func ErrCommunication(provider string, cause error) *AppError {
	return New(CodeCommunication, http.StatusInternalServerError,
		fmt.Sprintf("failed to communicate with %s", provider)).WithCause(cause)
}

// ErrUnknownProvider reports a provider name the relay does not know.
func ErrUnknownProvider(name string) *AppError {
	return New(CodeUnknownProvider, http.StatusNotFound, fmt.Sprintf("unknown provider %q", name))
}

// ErrNotImplemented reports a provider that is registered but not enabled.
func ErrNotImplemented(name string) *AppError {
	return New(CodeNotImplemented, http.StatusNotImplemented, fmt.Sprintf("%s OAuth is not implemented yet", name))
}

// ErrInternal is the generic catch-all. Internal detail never reaches the
// client through this error.
func ErrInternal() *AppError {
	return New(CodeInternal, http.StatusInternalServerError, "internal server error")
}

// AsAppError extracts an *AppError from err, or wraps err in the generic
// internal error.
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal().WithCause(err)
}

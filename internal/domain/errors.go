package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorKind classifies every failure a request can end with.
type ErrorKind string

const (
	KindUnauthenticated       ErrorKind = "unauthenticated"
	KindInvalidRequest        ErrorKind = "invalid_request"
	KindMisconfigured         ErrorKind = "misconfigured"
	KindProviderBadRequest    ErrorKind = "provider_bad_request"
	KindProviderAuthFailure   ErrorKind = "provider_auth_failure"
	KindProviderQuotaExceeded ErrorKind = "provider_quota_exceeded"
	KindProviderRateLimited   ErrorKind = "provider_rate_limited"
	KindProviderNotFound      ErrorKind = "provider_not_found"
	KindProviderError         ErrorKind = "provider_error"
	KindStorageError          ErrorKind = "storage_error"
	KindInternal              ErrorKind = "internal_error"
)

// StatusCode returns the default HTTP status for the kind.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidRequest, KindProviderBadRequest:
		return http.StatusBadRequest
	case KindProviderRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure carrying the client-facing message.
// Err holds the underlying cause, which is logged but never sent to clients.
type Error struct {
	Kind    ErrorKind
	Message string // human-readable, safe to return
	Details string // optional extra context for the client
	Status  int    // overrides Kind.StatusCode() when non-zero
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithDetails sets the client-facing details.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// WithStatus overrides the HTTP status of the error.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// Wrap attaches the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode implements HTTPError.
func (e *Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.StatusCode()
}

// Is lets errors.Is match the coarse sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthenticated
	case ErrValidation:
		return e.Kind == KindInvalidRequest
	}
	return false
}

// Convenience constructors for the common kinds.

func Unauthenticated(message string) *Error { return NewError(KindUnauthenticated, message) }

func InvalidRequest(message string) *Error { return NewError(KindInvalidRequest, message) }

func Misconfigured(message string) *Error { return NewError(KindMisconfigured, message) }

// StorageError wraps a persistence failure.
func StorageError(message string, err error) *Error {
	return NewError(KindStorageError, message).Wrap(err)
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

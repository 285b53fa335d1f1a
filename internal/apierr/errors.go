// Package apierr defines the canonical domain error taxonomy (C15) shared by
// every pkg/ service. HTTP adapters are the only layer that translates a
// Kind into a status code and a response envelope; domain code never touches
// net/http.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of domain failure. Every Error carries exactly one.
type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindBadCredentials    Kind = "BAD_CREDENTIALS"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindFeatureLocked     Kind = "FEATURE_LOCKED"
	KindQuotaExceeded     Kind = "QUOTA_EXCEEDED"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// statusByKind maps each Kind to its canonical HTTP status (§4.13).
var statusByKind = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindBadCredentials: http.StatusUnauthorized,
	KindUnauthorized:   http.StatusUnauthorized,
	KindForbidden:      http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
	KindFeatureLocked:  http.StatusPaymentRequired,
	KindQuotaExceeded:  http.StatusTooManyRequests,
	KindRateLimited:    http.StatusTooManyRequests,
	KindInternal:       http.StatusInternalServerError,
}

// Error is a structured domain failure. It deliberately has no dependency on
// net/http so pkg/ services stay transport-agnostic.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a domain error of the given kind that wraps an underlying
// cause, typically an infrastructure failure that should surface as INTERNAL.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// StatusFor returns the canonical HTTP status code for an error returned by
// a domain service. Errors that are not *Error map to 500.
func StatusFor(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if status, ok := statusByKind[apiErr.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// KindFor returns the Kind carried by err, or KindInternal if err is not a
// tagged domain error.
func KindFor(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// MessageFor returns the user-facing message carried by err, falling back to
// a generic message for untagged errors so internals never leak to clients.
func MessageFor(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "an internal error occurred"
}

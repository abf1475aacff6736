// Package apperr carries domain error kinds from the point of detection up to the HTTP boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindUnsupportedTenant
	KindNotFound
	KindConflict
	KindRateLimited
)

// Error is a domain error with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) error   { return newError(KindValidation, msg) }
func Unauthorized(msg string) error { return newError(KindUnauthorized, msg) }
func Forbidden(msg string) error    { return newError(KindForbidden, msg) }
func NotFound(msg string) error     { return newError(KindNotFound, msg) }

// Conflict wraps a store uniqueness violation.
func Conflict(msg string, cause error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: cause}
}

// UnsupportedTenant is returned for unknown and inactive bundles alike.
func UnsupportedTenant() error {
	return newError(KindUnsupportedTenant, "Unsupported app")
}

// RateLimited signals the caller should back off and retry later.
func RateLimited() error {
	return newError(KindRateLimited, "Too many requests")
}

// KindOf returns the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf maps err to an HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden, KindUnsupportedTenant:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a caller. Internal failures are opaque.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}

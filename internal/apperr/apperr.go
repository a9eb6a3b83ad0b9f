// Package apperr defines the application error taxonomy shared by the
// store, the assignment engine and the HTTP layer. Every error that crosses
// a package boundary carries a Kind so the API can render a uniform
// {error, message, details} envelope with the right status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error. The string value is what clients see in the
// envelope's "error" field.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is a kinded application error. Details is optional structured
// context (e.g., the offending field names on a validation failure).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context to the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Validation returns a validation error listing the offending fields.
func Validation(message string, fields map[string]any) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: fields}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

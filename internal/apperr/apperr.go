// Package apperr defines the failure taxonomy shared by the engine and
// the HTTP facade.  Every error that crosses a package boundary is one
// of the kinds below so that handlers can pick a response status
// without string matching, and so that raw database errors never reach
// a caller unwrapped.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// Validation marks missing or malformed input (HTTP 400).
	Validation Kind = iota + 1
	// NotFound marks an unknown identifier (HTTP 404).
	NotFound
	// Conflict marks state that forbids the operation, such as a copy
	// that is already checked out or a loan that is already returned
	// (HTTP 409).
	Conflict
	// Auth marks a failed credential or an inactive account.  By
	// convention of this system auth failures answer HTTP 200 with
	// success:false so the UI can show the message inline.
	Auth
	// System marks an unexpected failure, usually a wrapped database
	// error (HTTP 500).
	System
)

// Error carries a kind, a user-facing message and an optional wrapped
// cause kept for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with Sprintf formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new Error.  The original error message is
// preserved through Unwrap for logs; Message is what callers see.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err.  Errors that do not carry a kind
// are treated as System.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return System
}

// MessageOf returns the user-facing message for err.  Unclassified
// errors collapse to a generic message so internals do not leak.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}

// HTTPStatus maps a kind to the response status used by the facade.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Auth:
		// Auth failures are reported in-band with success:false.
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

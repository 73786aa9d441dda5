// Package apierr defines the typed error taxonomy every component surfaces
// across its boundary and its mapping onto the HTTP status codes the API
// layer returns.
package apierr

import (
	"fmt"
	"net/http"
)

// Kind describes a high-level category of error returned by a component.
type Kind string

const (
	// KindRepository marks a transient storage failure.
	KindRepository Kind = "repository"
	// KindBus marks a message-bus publish/consume failure.
	KindBus Kind = "bus"
	// KindOrchestrator marks a pod-operation failure.
	KindOrchestrator Kind = "orchestrator"
	// KindNotFound marks a missing row/resource the caller must turn into a 404.
	KindNotFound Kind = "notFound"
	// KindValidation marks malformed caller input.
	KindValidation Kind = "validation"
	// KindAuth marks an authorization failure.
	KindAuth Kind = "auth"
	// KindConflict marks a lost-update / optimistic-concurrency conflict.
	KindConflict Kind = "conflict"
	// KindInternal marks an unexpected internal error; root cause is logged,
	// a generic message is surfaced.
	KindInternal Kind = "internal"
)

// Error is the typed error every internal component returns across its
// boundary. The HTTP layer recovers it into a status code via Status.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's category.
func (e *Error) Kind() Kind { return e.kind }

// New builds an Error with a formatted message and no wrapped cause.
func New(kind Kind, msg string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(msg, args...)}
}

// Wrap builds an Error around a lower-level cause (a driver/transport error).
func Wrap(kind Kind, err error, msg string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: fmt.Sprintf(msg, args...), err: err}
}

// Status maps an Error onto its HTTP status code: unexpected internal
// errors always degrade to a generic 500, everything else maps 1:1 onto
// its taxonomy entry.
func Status(err error) int {
	e, ok := err.(*Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindRepository, KindBus, KindOrchestrator:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that is safe to put on the wire: the
// error's own message for the known taxonomy, a generic string for
// anything that fell through as an unexpected internal error.
func PublicMessage(err error) string {
	e, ok := err.(*Error)
	if !ok || e.kind == KindInternal {
		return "internal server error"
	}
	return e.msg
}

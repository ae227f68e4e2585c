// Package apperr defines the error kinds the designer API surfaces to
// clients. Repositories and services return these; the handler edge maps
// them to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP edge
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindDenied
	KindConflict
	KindAlreadyInState
	KindInvalid
)

// Error is a kinded error with an optional wrapped cause
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

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing workflow, version, node or task type
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Denied reports a failed permission check. Keep messages generic: a
// denial must not reveal whether the resource exists.
func Denied(format string, args ...any) *Error {
	return &Error{Kind: KindDenied, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports an invariant violation (duplicate version number,
// duplicate connection, self-loop, duplicate permission)
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// AlreadyInState reports a no-op state transition, e.g. publishing an
// already-published version
func AlreadyInState(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyInState, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports malformed input that passed transport-level checks
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected persistence or logic failure
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

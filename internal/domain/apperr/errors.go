// Package apperr defines the closed error taxonomy shared by all layers.
// Callers classify failures with KindOf rather than matching on error text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classes the service distinguishes.
type Kind int

const (
	// KindInternal covers anything unexpected. It is the zero value so an
	// unclassified error never masquerades as a client fault.
	KindInternal Kind = iota
	// KindValidation marks malformed or out-of-range input.
	KindValidation
	// KindNotFound marks a missing review, fix, comment, or subject.
	KindNotFound
	// KindConflict marks a duplicate non-terminal review for a subject.
	KindConflict
	// KindExternal marks an analysis provider or code host failure.
	KindExternal
)

// String returns the kind's wire-friendly name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExternal:
		return "external_service"
	default:
		return "internal"
	}
}

// Error is a classified error. Msg is safe to expose to callers; Err carries
// the wrapped cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// Validation returns a KindValidation error with a formatted message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error naming the missing resource.
func NotFound(resource string, id any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %v not found", resource, id)}
}

// Conflict returns a KindConflict error with a formatted message.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// External wraps a provider or code host failure.
func External(msg string, err error) *Error {
	return &Error{Kind: KindExternal, Msg: msg, Err: err}
}

// Internal wraps an unexpected failure. The message shown to callers is
// generic; err is preserved for logging only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-safe message for err. Unclassified errors get a
// generic message so internal detail never leaks.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

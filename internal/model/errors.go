package model

import (
	"errors"
	"fmt"
)

// ErrorKind tags the category of failure a service operation produced, per
// the error taxonomy in spec §7. Callers can switch on Kind without parsing
// message text.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "NotFound"
	KindInvalidArgument    ErrorKind = "InvalidArgument"
	KindConflict           ErrorKind = "Conflict"
	KindPreconditionFailed ErrorKind = "PreconditionFailed"
	KindImmutableInState   ErrorKind = "ImmutableInState"
	KindCannotRollback     ErrorKind = "CannotRollback"
	KindSnapshotInvalid    ErrorKind = "SnapshotInvalid"
	KindCannotDelete       ErrorKind = "CannotDelete"
	KindStoreError         ErrorKind = "StoreError"
)

// Error is the single error type every service operation returns. IDs
// carries the offending record id(s), when known, so callers don't have to
// scrape them out of Message.
type Error struct {
	Kind    ErrorKind
	Message string
	IDs     []string
	cause   error
}

func (e *Error) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (ids=%v)", e.Kind, e.Message, e.IDs)
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes errors.Is(err, model.Err(kind)) work by comparing Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// NewError constructs a tagged error.
func NewError(kind ErrorKind, message string, ids ...string) *Error {
	return &Error{Kind: kind, Message: message, IDs: ids}
}

// WrapError tags an underlying error (typically from the store) with a kind.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Err builds a sentinel usable with errors.Is for a bare kind comparison,
// e.g. errors.Is(err, model.Err(model.KindNotFound)).
func Err(kind ErrorKind) *Error {
	return &Error{Kind: kind}
}

// IsKind reports whether err (or anything it wraps) is a *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for callers that need to react to it
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindConflict          ErrorKind = "conflict"
	KindInvalidState      ErrorKind = "invalid_state"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindValidation        ErrorKind = "validation"
	KindInternal          ErrorKind = "internal"
)

// ErrDuplicate is wrapped by repositories when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate record")

// Error is the error type returned by every service operation. Message is safe
// to show to the end user; Err carries the underlying cause, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindConflict}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func notFound(message string) *Error { return newError(KindNotFound, message) }
func forbidden(message string) *Error { return newError(KindForbidden, message) }
func conflict(message string) *Error { return newError(KindConflict, message) }
func invalidState(message string) *Error { return newError(KindInvalidState, message) }
func insufficientFunds(message string) *Error { return newError(KindInsufficientFunds, message) }
func validation(message string) *Error { return newError(KindValidation, message) }

// internal wraps an unexpected failure. The message stays generic; the cause is kept for logs.
func internal(err error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: "Internal server error",
		Err:     fmt.Errorf(format+": %w", append(args, err)...),
	}
}

// KindOf returns the kind of err, or KindInternal for errors that did not come from this package
func KindOf(err error) ErrorKind {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return KindInternal
}

// asServiceError passes *Error values through and wraps anything else as internal
func asServiceError(err error, format string, args ...any) error {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return err
	}
	return internal(err, format, args...)
}

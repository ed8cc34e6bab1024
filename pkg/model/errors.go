package model

import (
	"errors"
	"fmt"
)

var (
	// ErrBadValue is returned when an operator is applied to a value it
	// cannot operate on (e.g. pulling from a non-array).
	ErrBadValue = errors.New("bad value")
	// ErrFailedToParse is returned when a removal condition or update
	// document is malformed.
	ErrFailedToParse = errors.New("failed to parse")
	// ErrNotSupported is returned for update operators the engine does not
	// implement.
	ErrNotSupported = errors.New("operator not supported")
	// ErrPathNotViable is returned when an update would have to create a
	// path through a non-document value. It indicates a broken caller
	// invariant and aborts the enclosing update.
	ErrPathNotViable = errors.New("path not viable")
	// ErrImmutableField is returned when an update targets a path the
	// system forbids modifying.
	ErrImmutableField = errors.New("immutable field")
	// ErrInternal is returned when an engine invariant is violated. It is
	// never caught or retried inside the engine.
	ErrInternal = errors.New("internal error")
)

// BadValuef wraps ErrBadValue with a formatted message.
func BadValuef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadValue, fmt.Sprintf(format, args...))
}

// FailedToParsef wraps ErrFailedToParse with a formatted message.
func FailedToParsef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFailedToParse, fmt.Sprintf(format, args...))
}

// Internalf wraps ErrInternal with a formatted message.
func Internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// IsUserError reports whether err is a recoverable validation error that
// should be reported to the caller rather than abort the update.
func IsUserError(err error) bool {
	return errors.Is(err, ErrBadValue) ||
		errors.Is(err, ErrFailedToParse) ||
		errors.Is(err, ErrNotSupported)
}

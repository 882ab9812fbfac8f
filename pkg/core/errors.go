package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure reported to a client unwraps to exactly one of these.
var (
	// ErrSyntax reports a malformed command: missing terminator, bad clause,
	// reserved column name or wrong token count.
	ErrSyntax = errors.New("syntax error")

	// ErrNotFound reports an unknown database, table, column or attribute.
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a duplicate database, table or column, or an
	// attempt to change the id column.
	ErrConflict = errors.New("conflict")

	// ErrValue reports a value that cannot be stored, such as a row with
	// the wrong number of values.
	ErrValue = errors.New("invalid value")

	// ErrUnsupported reports a WHERE combinator or comparator shape the
	// language does not implement.
	ErrUnsupported = errors.New("unsupported")
)

// Error is a classified error carrying a human-readable message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the error kind so callers can use errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf creates a classified error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates an ErrNotFound error.
func NotFoundf(format string, args ...any) error {
	return Errorf(ErrNotFound, format, args...)
}

// Conflictf creates an ErrConflict error.
func Conflictf(format string, args ...any) error {
	return Errorf(ErrConflict, format, args...)
}

// Valuef creates an ErrValue error.
func Valuef(format string, args ...any) error {
	return Errorf(ErrValue, format, args...)
}

// KindOf returns the kind of err, or nil when err is not classified
// (for example a raw I/O error).
func KindOf(err error) error {
	for _, kind := range []error{ErrSyntax, ErrNotFound, ErrConflict, ErrValue, ErrUnsupported} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

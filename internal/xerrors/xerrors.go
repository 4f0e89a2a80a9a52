// Package xerrors classifies the two error tiers spec.md §7 asks for:
// recoverable errors a REPL prints and keeps going after, and fatal
// errors that print a diagnostic and terminate the process.
package xerrors

import (
	"fmt"

	cockroacherrors "github.com/cockroachdb/errors"
)

// Fatal wraps err (I/O failure, out-of-bounds page access, invalid child
// access, access through an invalid page, corrupt file length) with a
// stack trace and marks it for termination. Returns nil for a nil err so
// callers can write `return xerrors.Fatal(err)` unconditionally.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{cause: cockroacherrors.WithStack(err)}
}

// Fatalf builds a new fatal error from a format string.
func Fatalf(format string, args ...interface{}) error {
	return &FatalError{cause: cockroacherrors.WithStack(cockroacherrors.Newf(format, args...))}
}

// FatalError is the class of error that must reach main and terminate
// the process rather than be reported and ignored.
type FatalError struct {
	cause error
}

func (e *FatalError) Error() string { return e.cause.Error() }

func (e *FatalError) Unwrap() error { return e.cause }

// Format delegates to the wrapped cockroachdb error so that %+v prints
// the captured stack trace.
func (e *FatalError) Format(s fmt.State, verb rune) {
	if f, ok := e.cause.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	_, _ = fmt.Fprintf(s, "%s", e.cause.Error())
}

// IsFatal reports whether err (or anything it wraps) is a FatalError.
func IsFatal(err error) bool {
	var f *FatalError
	return cockroacherrors.As(err, &f)
}

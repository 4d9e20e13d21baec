// Package errors provides a const-friendly error type so packages can declare
// sentinel errors as typed string constants.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSeparator separates the sentinel message from its cause in rendered errors.
const ErrSeparator = " -- "

// Error is a string based error type allowing the definition of const errors.
type Error string

func (e Error) Error() string {
	return string(e)
}

// Is reports whether target is this error or a wrap of it.
func (e Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return e.Error() == target.Error() || strings.HasPrefix(target.Error(), e.Error()+ErrSeparator)
}

// As sets target to this error when target is an *Error.
func (e Error) As(target any) bool {
	if t, ok := target.(*Error); ok {
		*t = e
		return true
	}
	return false
}

// Wrap attaches cause to this error, keeping the sentinel matchable via Is.
func (e Error) Wrap(cause error) error {
	return wrappedError{msg: string(e), cause: cause}
}

type wrappedError struct {
	msg   string
	cause error
}

func (w wrappedError) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s%s%v", w.msg, ErrSeparator, w.cause)
	}
	return w.msg
}

func (w wrappedError) Is(target error) bool {
	return Error(w.msg).Is(target)
}

func (w wrappedError) As(target any) bool {
	return Error(w.msg).As(target)
}

func (w wrappedError) Unwrap() error {
	return w.cause
}

// The below are wrappers as we are stealing the namespace of the errors package.

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns a new error with the specified message.
func New(message string) error {
	return errors.New(message)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

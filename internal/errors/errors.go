package errors

import (
	"errors"
	"fmt"
	"runtime"
)

type Error struct {
	Cause    error
	Location string
}

func Wrap(err error, skip int) error {
	if err == nil {
		return nil
	}

	c := &Error{
		Cause:    err,
		Location: getLocation(skip),
	}

	return c
}

func (w *Error) Error() string {
	return w.Cause.Error()
}

func (f *Error) Unwrap() error {
	return f.Cause
}

func (f *Error) Format(s fmt.State, verb rune) {
	fmt.Fprintf(s, "%s\n", f.Cause.Error())
	fmt.Fprintf(s, "\t%s\n", f.Location)
}

func getLocation(skip int) string {
	_, file, line, _ := runtime.Caller(2 + skip)
	return fmt.Sprintf("%s:%d", file, line)
}

// ValidationError marks a client fault: missing or invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, a ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, a...)}
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// NotFoundError marks a lookup that matched no record.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(format string, a ...interface{}) error {
	return &NotFoundError{Message: fmt.Sprintf(format, a...)}
}

func IsNotFoundError(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

// UpstreamError marks a provider or storage failure. The wrapped cause is
// logged server-side; callers only ever see the generic message.
type UpstreamError struct {
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

func NewUpstreamError(msg string, cause error) error {
	return &UpstreamError{Message: msg, Cause: cause}
}

func IsUpstreamError(err error) bool {
	var v *UpstreamError
	return errors.As(err, &v)
}

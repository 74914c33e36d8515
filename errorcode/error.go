package errorcode

import "fmt"

// Error is a structured VRS error, mirroring pkg/storage/errors.go's
// StorageError: a stable Code, a human message, an optional component
// name (which file/stream/backend raised it), and an optional wrapped
// cause for errors.Is/errors.As chains.
type Error struct {
	Code      Code
	Message   string
	Component string
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = CodeToMessage(e.Code)
	}
	if e.Component != "" {
		msg = fmt.Sprintf("%s: %s", e.Component, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error for code, with an optional cause.
func New(code Code, component string, cause error) *Error {
	return &Error{Code: code, Component: component, Cause: cause}
}

// Newf creates an *Error for code with a formatted message, component
// name, and optional cause.
func Newf(code Code, component string, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Component: component, Cause: cause}
}

// Is reports whether err (or something it wraps) is an *Error with the
// given Code, so callers can write errorcode.Is(err, errorcode.NotAVRSFile).
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Code == code {
				return true
			}
			err = e.Cause
			continue
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

package types

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	// TransientIO covers files or pipes that are momentarily unavailable,
	// the next poll retries.
	TransientIO ErrorType = "TRANSIENT_IO"
	// NotFound covers a missing record, config or log path. The instance
	// is skipped for the current cycle.
	NotFound ErrorType = "NOT_FOUND"
	// ExternalCommandFailure is a non-zero exit or timeout of the service manager.
	ExternalCommandFailure ErrorType = "EXTERNAL_COMMAND_FAILURE"
	// ProtocolError is a malformed control socket request.
	ProtocolError ErrorType = "PROTOCOL_ERROR"
	Fatal         ErrorType = "FATAL"
)

func (e ErrorType) String() string {
	return string(e)
}

type Error struct {
	Type ErrorType
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(errType ErrorType, err error) *Error {
	return &Error{
		Type: errType,
		Err:  err,
	}
}

func NewErrorWithMsg(errType ErrorType, format string, args ...any) *Error {
	return &Error{
		Type: errType,
		Err:  fmt.Errorf(format, args...),
	}
}

// IsType reports whether err is, or wraps, an *Error of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errType
	}
	return false
}

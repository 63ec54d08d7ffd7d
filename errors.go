package venom

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotImplemented   = errors.New("not implemented")
	ErrUnexpectedOutput = errors.New("unexpected step output")
)

var errInvalidInputBufferSize = errors.New("invalid input buffer size")
var errInvalidConcurrency = errors.New("invalid concurrency")
var errInvalidTimeout = errors.New("invalid timeout")
var errInvalidDelay = errors.New("invalid delay")
var errInvalidURL = errors.New("invalid url")

// ArgumentError reports configuration that can never produce a usable step or request.
type ArgumentError struct {
	Field  string
	Reason string
}

func newArgumentError(field, format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ArgumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidArgument, e.Field, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

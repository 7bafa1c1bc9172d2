package waste

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures returned by the decision pipeline.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	CodeComputation   ErrorCode = "COMPUTATION_ERROR"
)

var (
	// ErrNotFound means no records, model, or capability exists for the key.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration means static reference data is missing or corrupt.
	ErrConfiguration = errors.New("configuration error")
	// ErrComputation means a classifier or forecaster call failed unexpectedly.
	ErrComputation = errors.New("computation error")
)

// Error is a structured pipeline error. errors.Is matches it against the
// sentinel for its code as well as the wrapped cause.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeNotFound:
		return target == ErrNotFound
	case CodeConfiguration:
		return target == ErrConfiguration
	case CodeComputation:
		return target == ErrComputation
	}
	return false
}

// NotFoundError builds a CodeNotFound error.
func NotFoundError(op, format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError builds a CodeConfiguration error wrapping err (may be nil).
func ConfigurationError(op string, err error, format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// ComputationError builds a CodeComputation error wrapping err.
func ComputationError(op string, err error, format string, args ...any) *Error {
	return &Error{Code: CodeComputation, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of a pipeline error, or "" for anything else.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrComputation):
		return CodeComputation
	}
	return ""
}

package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a failure; the HTTP layer maps each code to a status.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeDependency         ErrorCode = "dependency"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
	CodeUnauthorized       ErrorCode = "unauthorized"
)

// Error carries a code and the operation that failed.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

// Error renders "op: message (code)", dropping whichever parts are empty.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Message != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Message)
	}
	if b.Len() == 0 {
		return string(e.Code)
	}
	return fmt.Sprintf("%s (%s)", b.String(), e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func newf(code ErrorCode, op, format string, args []any) error {
	return NewError(code, op, fmt.Sprintf(format, args...), nil)
}

func Validation(op, format string, args ...any) error { return newf(CodeValidation, op, format, args) }
func NotFound(op, format string, args ...any) error   { return newf(CodeNotFound, op, format, args) }
func Conflict(op, format string, args ...any) error   { return newf(CodeConflict, op, format, args) }

// Precondition reports an unmet workflow guard; the message names the guard.
func Precondition(op, format string, args ...any) error {
	return newf(CodePreconditionFailed, op, format, args)
}

// Unauthorized rejects bad credentials or tokens.
func Unauthorized(op, format string, args ...any) error {
	return newf(CodeUnauthorized, op, format, args)
}

// Dependency wraps a renderer, mailer or store failure.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return err
	}
	return Wrap(CodeDependency, op, err)
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if e := (*Error)(nil); errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return code != "" && CodeOf(err) == code
}

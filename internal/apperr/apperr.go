// Package apperr defines the service's error taxonomy and maps
// infrastructure failures (Postgres codes, context cancellation, gorm's
// not-found sentinel) onto it.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	CodeValidation  Code = "validation"
	CodeNotFound    Code = "not_found"
	CodeIntegrity   Code = "integrity"
	CodeUnavailable Code = "unavailable"
	CodeInternal    Code = "internal"
)

// Error is the canonical error wrapper threaded through every layer.
type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(code, op, err.Error(), err)
}

func IsCode(err error, code Code) bool {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

func CodeOf(err error) Code {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return ""
	}
	return appErr.Code
}

func Validation(op, message string) error {
	return New(CodeValidation, op, message, nil)
}

func NotFound(op, message string) error {
	return New(CodeNotFound, op, message, nil)
}

func Integrity(op, message string) error {
	return New(CodeIntegrity, op, message, nil)
}

func Unavailable(op, message string, cause error) error {
	return New(CodeUnavailable, op, message, cause)
}

func Internal(op string, cause error) error {
	return New(CodeInternal, op, "unexpected internal error", cause)
}

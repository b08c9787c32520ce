package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a failure so every layer (store, feed, controller, HTTP)
// can react to it without string matching.
type Code string

const (
	// CodeValidation is malformed caller input. Never retried.
	CodeValidation Code = "validation"
	// CodeNotFound is a referenced route or user that does not exist.
	CodeNotFound Code = "not_found"
	// CodeTransient is a recoverable store failure (timeout, lock, unavailable).
	CodeTransient Code = "transient"
	// CodeConflict is reserved for multi-writer corrections.
	CodeConflict Code = "conflict"
	CodeInternal Code = "internal"
)

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
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap tags err with code. An err that already carries a code keeps it.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return New(code, op, err.Error(), err)
}

func Validation(op, format string, args ...any) error {
	return New(CodeValidation, op, fmt.Sprintf(format, args...), nil)
}

func NotFound(op, format string, args ...any) error {
	return New(CodeNotFound, op, fmt.Sprintf(format, args...), nil)
}

func Transient(op string, cause error) error {
	msg := "temporarily unavailable"
	if cause != nil {
		msg = cause.Error()
	}
	return New(CodeTransient, op, msg, cause)
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code carried by err, or "" when err is untagged.
func CodeOf(err error) Code {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

func IsTransient(err error) bool { return IsCode(err, CodeTransient) }

package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies catalog failures.
type ErrorCode string

const (
	CodeNotFound             ErrorCode = "not_found"
	CodeAmbiguousMatch       ErrorCode = "ambiguous_match"
	CodeReferentialViolation ErrorCode = "referential_violation"
	CodeStoreFailure         ErrorCode = "store_failure"
	CodeValidation           ErrorCode = "validation"
	CodeConflict             ErrorCode = "conflict"
	CodeRetryable            ErrorCode = "retryable"
)

// Error is the canonical catalog error wrapper.
type Error struct {
	Code    ErrorCode
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

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with a code. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func ReferentialViolation(op, format string, args ...any) error {
	return NewError(CodeReferentialViolation, op, fmt.Sprintf(format, args...), nil)
}

func Validation(op, format string, args ...any) error {
	return NewError(CodeValidation, op, fmt.Sprintf(format, args...), nil)
}

// IsCode reports whether err or anything it wraps carries code. Joined errors
// match when any member does.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, member := range joined.Unwrap() {
			if IsCode(member, code) {
				return true
			}
		}
		return false
	}
	var catErr *Error
	if !errors.As(err, &catErr) {
		return false
	}
	if catErr.Code == code {
		return true
	}
	return IsCode(catErr.Cause, code)
}

// CodeOf extracts the outermost code, or "".
func CodeOf(err error) ErrorCode {
	var catErr *Error
	if !errors.As(err, &catErr) {
		return ""
	}
	return catErr.Code
}

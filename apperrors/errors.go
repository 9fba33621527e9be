package apperrors

import (
	"errors"
	"fmt"
)

// AppError carries a stable code alongside the human message and the
// underlying driver error.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError by code, so errors.Is(err, ErrNotFound) works
// for any not-found error regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func AlreadyExists(msg string, cause error) error {
	return Wrap(CodeAlreadyExists, msg, cause)
}

func FailedPrecondition(msg string, cause error) error {
	return Wrap(CodeFailedPrecondition, msg, cause)
}

func Unavailable(msg string, cause error) error {
	return Wrap(CodeUnavailable, msg, cause)
}

func DeadlineExceeded(msg string, cause error) error {
	return Wrap(CodeDeadlineExceeded, msg, cause)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}

// Sentinels for errors.Is checks. They carry no message so they match any
// error of the same code.
var (
	ErrNotFound         = &AppError{Code: CodeNotFound}
	ErrAlreadyExists    = &AppError{Code: CodeAlreadyExists}
	ErrInvalidArgument  = &AppError{Code: CodeInvalidArgument}
	ErrUnavailable      = &AppError{Code: CodeUnavailable}
	ErrDeadlineExceeded = &AppError{Code: CodeDeadlineExceeded}
)

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsRetryable reports whether the operation may succeed if tried again.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeUnavailable, CodeDeadlineExceeded:
		return true
	}
	return false
}

package core

import (
	"errors"
	"fmt"
)

// Code classifies failures of the persistence core so callers can react to
// each kind without inspecting messages.
type Code int

const (
	CodeInternal Code = iota
	CodeValidation
	CodeDuplicateName
	CodeForeignKey
	CodeNotFound
	CodeIO
	CodeUninitialized
	CodeUnavailable
)

func (c Code) String() string {
	switch c {
	case CodeValidation:
		return "ValidationError"
	case CodeDuplicateName:
		return "DuplicateNameError"
	case CodeForeignKey:
		return "ForeignKeyError"
	case CodeNotFound:
		return "NotFoundError"
	case CodeIO:
		return "IOError"
	case CodeUninitialized:
		return "UninitializedStoreError"
	case CodeUnavailable:
		return "StoreUnavailableError"
	default:
		return "InternalError"
	}
}

// Error is the coded error returned by the stores and the expense service.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code, so errors.Is(err,
// ErrDuplicateName) works regardless of message.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrDuplicateName = &Error{Code: CodeDuplicateName, Message: "duplicate name"}
	ErrForeignKey    = &Error{Code: CodeForeignKey, Message: "referenced record does not exist"}
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrIO            = &Error{Code: CodeIO, Message: "i/o failure"}
	ErrUninitialized = &Error{Code: CodeUninitialized, Message: "store is not initialized"}
	ErrUnavailable   = &Error{Code: CodeUnavailable, Message: "store is unavailable"}
)

// NewError creates a coded error with a message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a coded error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a coded error around an underlying cause.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code of the first *Error in err's chain.
// Errors without one are reported as CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Package errors defines stable error codes for all smelt failure modes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies a failure mode
type ErrorCode string

const (
	// ContentReadFailed indicates a file could not be read while hashing
	ContentReadFailed ErrorCode = "CONTENT_READ_FAILED"
	// AnalysisFailed indicates the remote analyzer returned a non-success status or threw
	AnalysisFailed ErrorCode = "ANALYSIS_FAILED"
	// ServerUnavailable indicates the remote analyzer is unreachable
	ServerUnavailable ErrorCode = "SERVER_UNAVAILABLE"
	// WorkspaceNotConfigured indicates no workspace root is configured
	WorkspaceNotConfigured ErrorCode = "WORKSPACE_NOT_CONFIGURED"
	// StorageFailure indicates the result store could not be read or written
	StorageFailure ErrorCode = "STORAGE_FAILURE"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error is a coded error that wraps an optional cause
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a coded error without a cause
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error wrapping a cause
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the error code from err, or InternalError if it has none
func CodeOf(err error) ErrorCode {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return InternalError
}

// IsCode reports whether err carries the given code
func IsCode(err error, code ErrorCode) bool {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// Package errors defines the error taxonomy shared by the resopt
// engine, pipeline and CLI.
package errors

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	CodeUnknown              = "UNKNOWN_ERROR"
	CodeMalformedPayload     = "MALFORMED_PAYLOAD"
	CodeMalformedInitializer = "MALFORMED_INITIALIZER"
	CodeUnknownRole          = "UNKNOWN_ROLE"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeConfigError          = "CONFIG_ERROR"
	CodeDatabaseError        = "DATABASE_ERROR"
	CodeStorageError         = "STORAGE_ERROR"
	CodeUploadError          = "UPLOAD_ERROR"
	CodeDownloadError        = "DOWNLOAD_ERROR"
	CodeRemapError           = "REMAP_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeTimeout              = "TIMEOUT_ERROR"
)

// AppError carries a stable machine-readable code next to the human
// message, so callers can branch on Code while logs keep the chain.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by code, so sentinel instances below work
// with errors.Is regardless of message or wrapped cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an AppError with no cause.
func New(code string, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError around an existing error.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Sentinel instances for errors.Is checks.
var (
	ErrMalformedPayload     = New(CodeMalformedPayload, "malformed array payload")
	ErrMalformedInitializer = New(CodeMalformedInitializer, "malformed static initializer")
	ErrUnknownRole          = New(CodeUnknownRole, "unknown holder role")
	ErrInvalidInput         = New(CodeInvalidInput, "invalid input")
	ErrConfigError          = New(CodeConfigError, "configuration error")
	ErrDatabaseError        = New(CodeDatabaseError, "database error")
	ErrStorageError         = New(CodeStorageError, "storage error")
	ErrUploadError          = New(CodeUploadError, "upload error")
	ErrDownloadError        = New(CodeDownloadError, "download error")
	ErrRemapError           = New(CodeRemapError, "remap error")
	ErrNotFound             = New(CodeNotFound, "not found")
	ErrTimeout              = New(CodeTimeout, "operation timeout")
)

// IsMalformedPayload reports whether err is a payload decode failure.
func IsMalformedPayload(err error) bool {
	return errors.Is(err, ErrMalformedPayload)
}

// IsMalformedInitializer reports whether err is a structural failure
// in a holder's static initializer.
func IsMalformedInitializer(err error) bool {
	return errors.Is(err, ErrMalformedInitializer)
}

// IsUnknownRole reports whether err is a role configuration error.
func IsUnknownRole(err error) bool {
	return errors.Is(err, ErrUnknownRole)
}

// IsDatabaseError reports whether err is a database error.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// IsNotFound reports whether err is a missing-entity error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// GetErrorCode extracts the code from an error chain.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the message from an error chain.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

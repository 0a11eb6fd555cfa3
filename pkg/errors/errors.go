package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries a client-facing message and HTTP status alongside an
// optional internal error kept for logging. The API contract returns bare
// string messages, so there is no structured error code.
type AppError struct {
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Errors shared across the registration and verification flows. The message
// strings are part of the HTTP contract and must not change.
var (
	ErrMissingFields = &AppError{
		Message:    "Missing required fields",
		StatusCode: http.StatusBadRequest,
	}

	ErrInvalidEmail = &AppError{
		Message:    "Invalid email",
		StatusCode: http.StatusBadRequest,
	}

	ErrCodeInvalid = &AppError{
		Message:    "Invalid or expired code",
		StatusCode: http.StatusBadRequest,
	}

	ErrCodeExpired = &AppError{
		Message:    "This verification code has expired",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternalServer = &AppError{
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds an AppError with the provided message and status.
func New(message string, statusCode int) *AppError {
	return &AppError{
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf builds a 500 AppError whose message is formatted from the arguments.
// Used where the contract surfaces raw error detail to the caller.
func Newf(statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// FromError converts a generic error into an AppError, defaulting to
// ErrInternalServer while keeping the original error for logging.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

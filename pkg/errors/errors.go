package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by every layer that renders failures to API consumers.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeStateConflict  = "STATE_CONFLICT"
	CodeDependency     = "DEPENDENCY_ERROR"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
	CodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	CodeCSRF           = "CSRF_TOKEN_INVALID"
)

// AppError provides a structured error that can be rendered to API consumers.
// Internal is logged server side and never serialised.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
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

// Common errors exposed to the rest of the application.
var (
	ErrUnauthorized = &AppError{
		Code:       CodeAuthentication,
		Message:    "Unauthorized. Please login first",
		StatusCode: http.StatusUnauthorized,
	}

	ErrNotAuthenticated = &AppError{
		Code:       CodeAuthentication,
		Message:    "Not authenticated",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       CodeAuthorization,
		Message:    "Permission denied",
		StatusCode: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       CodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:       CodeValidation,
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrNoOrganization = &AppError{
		Code:       CodeValidation,
		Message:    "No organization found",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternalServer = &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	ErrRateLimit = &AppError{
		Code:       CodeRateLimit,
		Message:    "Too many requests, please slow down",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrCSRFInvalid = &AppError{
		Code:       CodeCSRF,
		Message:    "Invalid CSRF token",
		StatusCode: http.StatusForbidden,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
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

// NewBadRequest reports malformed or missing input.
func NewBadRequest(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// NewUnauthenticated reports a missing or rejected credential.
func NewUnauthenticated(message string) *AppError {
	return New(CodeAuthentication, message, http.StatusUnauthorized)
}

// NewForbidden reports a valid session whose role does not allow the action.
func NewForbidden(message string) *AppError {
	return New(CodeAuthorization, message, http.StatusForbidden)
}

// NewNotFound reports an entity that is absent or outside the caller's scope.
func NewNotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// NewConflict reports a uniqueness violation.
func NewConflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// NewStateConflict reports an illegal status transition. It renders as 400.
func NewStateConflict(message string) *AppError {
	return New(CodeStateConflict, message, http.StatusBadRequest)
}

// NewDependency reports a failed store or credential issuer call. The cause is
// kept for logging only.
func NewDependency(message string, cause error) *AppError {
	return &AppError{
		Code:       CodeDependency,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   cause,
	}
}

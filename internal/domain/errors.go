package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUnavailable   = "UNAVAILABLE"
)

// AppError represents application-specific errors
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Predefined errors
var (
	ErrUnauthorized = &AppError{
		Code:       ErrCodeUnauthorized,
		Message:    "Authentication required",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidToken = &AppError{
		Code:       ErrCodeUnauthorized,
		Message:    "Invalid token",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpired = &AppError{
		Code:       ErrCodeUnauthorized,
		Message:    "Token has expired",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrReplicaMismatch = &AppError{
		Code:       ErrCodeForbidden,
		Message:    "Token subject does not match observation node",
		HTTPStatus: http.StatusForbidden,
	}
)

// Storage errors.
var (
	ErrKeyNotFound        = errors.New("key not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotLeader          = errors.New("not raft leader")
)

// Auth errors.
var (
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
	ErrMissingSubject          = errors.New("token has no subject")
)

// Catalogue errors.
var (
	ErrUnknownProtocol   = errors.New("unknown protocol")
	ErrDuplicateProtocol = errors.New("duplicate protocol")
)

// NewAppError creates a new application error
func NewAppError(code, message string, httpStatus int, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      cause,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string, cause error) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized, cause)
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string, cause error) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string, cause error) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound, cause)
}

// NewConflictError creates a conflict error
func NewConflictError(message string, cause error) *AppError {
	return NewAppError(ErrCodeConflict, message, http.StatusConflict, cause)
}

// NewUnavailableError creates a service unavailable error
func NewUnavailableError(message string, cause error) *AppError {
	return NewAppError(ErrCodeUnavailable, message, http.StatusServiceUnavailable, cause)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *AppError {
	return NewAppError(ErrCodeInternalError, message, http.StatusInternalServerError, cause)
}

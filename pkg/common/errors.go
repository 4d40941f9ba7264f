package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with an HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	// Fields carries per-field validation messages, if any
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewBadRequestError creates a 400 error
func NewBadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

// NewValidationError creates a 400 error with field messages
func NewValidationError(message string, fields map[string]string) *AppError {
	appErr := NewAppError(http.StatusBadRequest, message, nil)
	appErr.Fields = fields
	return appErr
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

// NewConflictError creates a 409 error
func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, nil)
}

// NewTooManyRequestsError creates a 429 error
func NewTooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, message, nil)
}

// NewInternalServerError creates a 500 error
func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}

// NewInternalError creates a 500 error that keeps the underlying cause
func NewInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

// NewServiceUnavailableError creates a 503 error
func NewServiceUnavailableError(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message, nil)
}

// AsAppError unwraps err into an *AppError when possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

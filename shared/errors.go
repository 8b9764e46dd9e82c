package shared

import (
	"errors"
	"net/http"
)

const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeAuthentication = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization  = "AUTHORIZATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeRateLimit      = "RATE_LIMIT_ERROR"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// AppError is an error that already knows how it should be presented to the caller.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Details    interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured details such as field errors.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func newAppError(status int, code string, err error, message string) *AppError {
	return &AppError{StatusCode: status, Code: code, Message: message, Err: err}
}

func NewValidationError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, ErrCodeValidation, err, message)
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, ErrCodeValidation, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(http.StatusUnauthorized, ErrCodeAuthentication, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return newAppError(http.StatusForbidden, ErrCodeAuthorization, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, ErrCodeNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, ErrCodeConflict, err, message)
}

func NewRateLimitError(err error, message string) *AppError {
	return newAppError(http.StatusTooManyRequests, ErrCodeRateLimit, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, ErrCodeInternal, err, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorCode reports whether err carries the given AppError code.
func IsErrorCode(err error, code string) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}

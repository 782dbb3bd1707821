package shared

import (
	"errors"
	"net/http"
)

// AppError wraps an internal error with the HTTP status and public message
// the API should surface. Handlers return these; the Fiber error handler
// renders them into the standard Response envelope.
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Data       interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(err error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(err, http.StatusBadRequest, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(err, http.StatusUnauthorized, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return newAppError(err, http.StatusForbidden, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(err, http.StatusNotFound, message)
}

func NewConflictError(err error, message string) *AppError {
	return newAppError(err, http.StatusConflict, message)
}

func NewTooManyRequestsError(err error, message string) *AppError {
	return newAppError(err, http.StatusTooManyRequests, message)
}

func NewInternalError(err error, message string) *AppError {
	return newAppError(err, http.StatusInternalServerError, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

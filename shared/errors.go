package shared

import (
	"errors"
	"net/http"
	"strconv"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeUnauthorizedOrigin = "UNAUTHORIZED_ORIGIN"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is an error that already knows how it is rendered to a client.
// Message is always safe to show; the wrapped cause never leaves the process.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter int
	cause      error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Wrap returns a copy of e carrying cause for logging.
func (e *AppError) Wrap(cause error) *AppError {
	cp := *e
	cp.cause = cause
	return &cp
}

func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{StatusCode: statusCode, Code: code, Message: message}
}

func ErrValidation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, message)
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func ErrForbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message)
}

func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

func ErrRateLimited(message string, retryAfter int) *AppError {
	if retryAfter < 1 {
		retryAfter = 1
	}
	e := NewAppError(http.StatusTooManyRequests, CodeRateLimited, message)
	e.RetryAfter = retryAfter
	return e
}

func ErrUpstream(statusCode int, message string, cause error) *AppError {
	return NewAppError(statusCode, CodeUpstream, message).Wrap(cause)
}

func ErrInternal(message string, cause error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, message).Wrap(cause)
}

// ErrOrigin is returned for requests that do not come from an allowed site.
var ErrOrigin = NewAppError(http.StatusForbidden, CodeUnauthorizedOrigin,
	"Unauthorized access. This endpoint can only be accessed from the website.")

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// RetryAfterHeader formats e.RetryAfter for the Retry-After header.
func (e *AppError) RetryAfterHeader() string {
	return strconv.Itoa(e.RetryAfter)
}

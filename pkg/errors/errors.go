package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeMaintenance  = "MAINTENANCE"
	CodeInternal     = "INTERNAL_ERROR"
	CodeBadRequest   = "BAD_REQUEST"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"
	CodeRateLimited  = "RATE_LIMITED"
)

// statusByCode is the HTTP status each code maps to unless a caller of New
// overrides it.
var statusByCode = map[string]int{
	CodeNotFound:     http.StatusNotFound,
	CodeValidation:   http.StatusUnprocessableEntity,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeConflict:     http.StatusConflict,
	CodeInvalidState: http.StatusConflict,
	CodeMaintenance:  http.StatusConflict,
	CodeInternal:     http.StatusInternalServerError,
	CodeBadRequest:   http.StatusBadRequest,
	CodeTimeout:      http.StatusGatewayTimeout,
	CodeUnavailable:  http.StatusServiceUnavailable,
	CodeInvalidInput: http.StatusBadRequest,
	CodeRateLimited:  http.StatusTooManyRequests,
}

// AppError is the error every service returns across a package boundary.
// Err is kept for logs and errors.Is; it never reaches the client.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// WithDetails merges details into the error and returns it.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

func of(code, message string) *AppError {
	return New(code, message, statusByCode[code])
}

func NotFound(resource string) *AppError {
	return of(CodeNotFound, resource+" not found")
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Validation(message string, details map[string]any) *AppError {
	e := of(CodeValidation, message)
	e.Details = details
	return e
}

func InvalidInput(message string) *AppError { return of(CodeInvalidInput, message) }
func Unauthorized(message string) *AppError { return of(CodeUnauthorized, message) }
func Forbidden(message string) *AppError    { return of(CodeForbidden, message) }
func Conflict(message string) *AppError     { return of(CodeConflict, message) }
func Timeout(message string) *AppError      { return of(CodeTimeout, message) }
func RateLimited(message string) *AppError  { return of(CodeRateLimited, message) }

// InvalidState reports a transition the lifecycle does not permit.
func InvalidState(message string, from, to string) *AppError {
	return of(CodeInvalidState, message).WithDetails(map[string]any{
		"current_status":   from,
		"requested_status": to,
	})
}

// Maintenance carries a user-facing reason for a resource that cannot be booked.
func Maintenance(reason string) *AppError {
	return of(CodeMaintenance, reason)
}

func Internal(message string, err error) *AppError {
	e := of(CodeInternal, message)
	e.Err = err
	return e
}

func Unavailable(service string) *AppError {
	return of(CodeUnavailable, service+" is temporarily unavailable")
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError unwraps err to its AppError; anything else is reported as
// internal so its text stays server side.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

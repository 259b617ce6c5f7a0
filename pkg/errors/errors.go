// Package errors defines the AppError carried from services to handlers. Its
// Code decides the HTTP status and is stable for API clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func newError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
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

// WithDetails merges details into the error's existing details.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func NotFoundWithID(resource, id string) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetails(map[string]any{"resource": resource, "id": id})
}

// Validation reports input that parsed but breaks a business rule: past dates,
// a stay over the maximum, more guests than the room holds.
func Validation(message string, details map[string]any) *AppError {
	e := newError(CodeValidation, http.StatusUnprocessableEntity, message)
	e.Details = details
	return e
}

// InvalidInput reports a request that could not be parsed at all.
func InvalidInput(message string) *AppError {
	return newError(CodeInvalidInput, http.StatusBadRequest, message)
}

// Conflict reports that current state forbids the operation: an overlapping
// reservation, a room that is not free, a duplicate room number.
func Conflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, message)
}

// InvalidTransition is a Conflict raised when an entity is not in a state the
// requested operation can start from.
func InvalidTransition(resource, id, from, operation string) *AppError {
	return Conflict(fmt.Sprintf("cannot %s %s in status %s", operation, resource, from)).
		WithDetails(map[string]any{"resource": resource, "id": id, "status": from})
}

func Internal(message string, err error) *AppError {
	e := newError(CodeInternal, http.StatusInternalServerError, message)
	e.Err = err
	return e
}

func Timeout(message string) *AppError {
	return newError(CodeTimeout, http.StatusGatewayTimeout, message)
}

func TooLarge(limit int) *AppError {
	return newError(CodeTooLarge, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError returns the AppError in err's chain, or wraps err as Internal.
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

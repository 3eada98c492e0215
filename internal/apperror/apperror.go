// Package apperror defines the error type services return to handlers.
// Each AppError carries the HTTP status it should be rendered with and a
// stable machine-readable code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeSlotUnavailable    = "SLOT_UNAVAILABLE"
	CodeAlreadyCancelled   = "ALREADY_CANCELLED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeReferenceExhausted = "REFERENCE_EXHAUSTED"
	CodeRateLimited        = "RATE_LIMITED"
)

type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
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

// WithDetails attaches structured details rendered alongside the message.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// WithCode overrides the machine-readable code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

func Validation(message string, details map[string]any) *AppError {
	return New(CodeValidation, message, http.StatusUnprocessableEntity).WithDetails(details)
}

// Internal hides err from the client; handlers log it.
func Internal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ReferenceExhausted is returned when no unused booking reference could be
// drawn within the configured number of attempts.
func ReferenceExhausted(attempts int) *AppError {
	return New(CodeReferenceExhausted,
		"could not allocate a booking reference, please retry",
		http.StatusServiceUnavailable).
		WithDetails(map[string]any{"attempts": attempts})
}

// From returns err as an *AppError, wrapping anything else as Internal.
func From(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code string) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == code
}

// Package apperror provides the error type the CRM hands to its HTTP
// layer. An AppError carries a status code, a machine-readable kind and a
// message that is safe to show; the Echo error handler turns it into a
// page or a JSON body.
//
// NEVER return raw database or infrastructure errors to the client. Wrap
// them with NewInternal, which keeps the cause for logs only.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kinds used by the generic constructors. Packages may define their own
// with New.
const (
	TypeBadRequest   = "bad_request"
	TypeUnauthorized = "unauthorized"
	TypeForbidden    = "forbidden"
	TypeNotFound     = "not_found"
	TypeConflict     = "conflict"
	TypeValidation   = "validation_error"
	TypeInternal     = "internal_error"
)

// genericMessage is shown for anything that isn't an AppError.
const genericMessage = "an unexpected error occurred"

// AppError is a domain error with an HTTP mapping.
type AppError struct {
	// Code is the HTTP status code.
	Code int `json:"-"`

	// Type is the machine-readable kind, e.g. "not_found".
	Type string `json:"type"`

	// Message is safe for the client.
	Message string `json:"message"`

	// Internal is the underlying cause, logged but never sent.
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is reports whether target is an AppError of the same Type, so packages
// can export kind sentinels (auth.ErrNotFound) that match with errors.Is
// whatever message the returned instance carries.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Type == t.Type
}

// New creates an AppError of an arbitrary kind.
func New(code int, typ, message string) *AppError {
	return &AppError{Code: code, Type: typ, Message: message}
}

func NewBadRequest(message string) *AppError {
	return New(http.StatusBadRequest, TypeBadRequest, message)
}

func NewUnauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, TypeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return New(http.StatusForbidden, TypeForbidden, message)
}

func NewNotFound(message string) *AppError {
	return New(http.StatusNotFound, TypeNotFound, message)
}

func NewConflict(message string) *AppError {
	return New(http.StatusConflict, TypeConflict, message)
}

// NewValidation is a 422 for input that parsed but failed a field rule.
func NewValidation(message string) *AppError {
	return New(http.StatusUnprocessableEntity, TypeValidation, message)
}

// NewInternal is a 500 whose client message never reveals err.
func NewInternal(err error) *AppError {
	appErr := New(http.StatusInternalServerError, TypeInternal,
		"An unexpected error occurred. Please try again.")
	appErr.Internal = err
	return appErr
}

// SafeMessage returns the client-safe message of err. Anything that isn't
// an AppError gets a generic message so table names and driver errors
// never reach a response.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return genericMessage
}

// SafeCode returns the status code of err, or 500 if it isn't an AppError.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

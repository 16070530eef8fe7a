package auth

import (
	"net/http"

	"github.com/ventacrm/crm/internal/apperror"
)

// Error kinds surfaced by the auth service. Match them with errors.Is;
// AppError compares by Type, so the message on a returned instance may
// differ from the sentinel's.
var (
	// ErrInvalidCredentials covers both an unknown handle and a wrong
	// secret. The two cases are indistinguishable to callers.
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized,
		"invalid_credentials", "invalid email or password")

	// ErrNotFound is returned when a referenced principal does not exist.
	ErrNotFound = apperror.NewNotFound("user not found")

	// ErrForbiddenSelfDelete is returned when a principal tries to delete
	// its own registry entry.
	ErrForbiddenSelfDelete = apperror.New(http.StatusForbidden,
		"forbidden_self_delete", "you cannot delete your own account")

	// ErrAdminRequired guards the administrative registry operations.
	ErrAdminRequired = apperror.NewForbidden("admin role required")
)

// StatusClientClosedRequest is the non-standard status used when the
// client went away before the server finished.
const StatusClientClosedRequest = 499

// ErrLoginAbandoned is returned by Login when the request context ended
// before a session was written.
var ErrLoginAbandoned = apperror.New(StatusClientClosedRequest,
	"request_cancelled", "the request was cancelled")

// loginAbandoned wraps the context error so callers can still match
// context.Canceled or context.DeadlineExceeded.
func loginAbandoned(cause error) error {
	err := apperror.New(ErrLoginAbandoned.Code, ErrLoginAbandoned.Type, ErrLoginAbandoned.Message)
	err.Internal = cause
	return err
}

// newErr returns a fresh copy of a sentinel so callers can't mutate the
// shared value.
func newErr(kind *apperror.AppError) error {
	return apperror.New(kind.Code, kind.Type, kind.Message)
}

package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIs_MatchesByType(t *testing.T) {
	sentinel := NewNotFound("principal not found")
	err := fmt.Errorf("deleting: %w", NewNotFound("some other message"))

	if !errors.Is(err, sentinel) {
		t.Fatal("expected wrapped not_found to match sentinel")
	}
	if errors.Is(err, NewConflict("x")) {
		t.Fatal("did not expect not_found to match conflict")
	}
}

func TestIs_CustomKinds(t *testing.T) {
	a := New(http.StatusForbidden, "forbidden_self_delete", "cannot delete yourself")
	if errors.Is(a, NewForbidden("nope")) {
		t.Fatal("custom kind must not match generic forbidden")
	}
	if !errors.Is(a, New(http.StatusForbidden, "forbidden_self_delete", "")) {
		t.Fatal("expected same custom kind to match")
	}
}

func TestSafeMessageAndCode(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewBadRequest("bad input"))
	if got := SafeMessage(wrapped); got != "bad input" {
		t.Errorf("expected wrapped message, got %q", got)
	}
	if got := SafeCode(wrapped); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}

	plain := errors.New("dial tcp: connection refused")
	if got := SafeMessage(plain); got != "an unexpected error occurred" {
		t.Errorf("expected generic message, got %q", got)
	}
	if got := SafeCode(plain); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("table users doesn't exist")
	err := NewInternal(cause)
	if err.Message == cause.Error() {
		t.Fatal("internal error must not expose its cause in Message")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected Unwrap to expose cause for logging")
	}
}

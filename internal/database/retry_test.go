package database

import (
	"context"
	"errors"
	"testing"
)

func TestPingWithRetry_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := pingWithRetry(context.Background(), "test", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestPingWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := pingWithRetry(ctx, "test", func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before giving up, got %d", calls)
	}
}

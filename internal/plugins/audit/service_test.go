package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/ventacrm/crm/internal/apperror"
)

// mockAuditRepo implements AuditRepository for testing.
type mockAuditRepo struct {
	logFn    func(ctx context.Context, entry *Entry) error
	recentFn func(ctx context.Context, limit int) ([]Entry, error)
}

func (m *mockAuditRepo) Log(ctx context.Context, entry *Entry) error {
	if m.logFn != nil {
		return m.logFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditRepo) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, limit)
	}
	return nil, nil
}

func TestLog_RequiresAction(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{})
	err := svc.Log(context.Background(), &Entry{ActorID: 1})

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Fatalf("expected 400 AppError, got %v", err)
	}
}

func TestRecent_ClampsLimit(t *testing.T) {
	var got []int
	svc := NewAuditService(&mockAuditRepo{
		recentFn: func(ctx context.Context, limit int) ([]Entry, error) {
			got = append(got, limit)
			return nil, nil
		},
	})

	for _, limit := range []int{0, -3, 10, 5000} {
		if _, err := svc.Recent(context.Background(), limit); err != nil {
			t.Fatalf("limit %d: %v", limit, err)
		}
	}
	want := []int{recentLimit, recentLimit, 10, recentLimit}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected limit %d, got %d", i, want[i], got[i])
		}
	}
}

func TestLogActivity_SurvivesCancelledContext(t *testing.T) {
	var logged *Entry
	svc := NewAuditService(&mockAuditRepo{
		logFn: func(ctx context.Context, entry *Entry) error {
			if ctx.Err() != nil {
				t.Errorf("expected detached context, got %v", ctx.Err())
			}
			logged = entry
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.LogActivity(ctx, 1, "principal.deleted", 3, nil)

	if logged == nil {
		t.Fatal("expected entry to be written")
	}
	if logged.ActorID != 1 || logged.TargetID != 3 || logged.Action != "principal.deleted" {
		t.Errorf("unexpected entry: %+v", logged)
	}
}

func TestLogActivity_SwallowsRepositoryError(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{
		logFn: func(ctx context.Context, entry *Entry) error {
			return errors.New("disk full")
		},
	})

	// Must not panic or block.
	svc.LogActivity(context.Background(), 2, "session.logout", 2, nil)
}

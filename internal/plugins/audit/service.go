package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ventacrm/crm/internal/apperror"
)

// recentLimit is how many entries the admin audit view shows.
const recentLimit = 100

// AuditService handles business logic for the audit log.
type AuditService interface {
	// Log validates and persists an entry.
	Log(ctx context.Context, entry *Entry) error

	// Recent returns the latest entries, newest first. limit <= 0 or above
	// the cap falls back to the cap.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// LogActivity records an action without reporting failure to the
	// caller. It satisfies auth.ActivityLogger.
	LogActivity(ctx context.Context, actorID int64, action string, targetID int64, details map[string]any)
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Log(ctx context.Context, entry *Entry) error {
	if entry.Action == "" {
		return apperror.NewBadRequest("action is required for audit entry")
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}
	return nil
}

func (s *auditService) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}

	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing audit entries: %w", err))
	}
	return entries, nil
}

// LogActivity writes with a context detached from the request's
// cancellation, so a client hanging up after a successful action still
// leaves a record.
func (s *auditService) LogActivity(ctx context.Context, actorID int64, action string, targetID int64, details map[string]any) {
	entry := &Entry{
		ActorID:  actorID,
		Action:   action,
		TargetID: targetID,
		Details:  details,
	}
	if err := s.Log(context.WithoutCancel(ctx), entry); err != nil {
		slog.Error("failed to write audit log entry",
			slog.String("action", action),
			slog.Int64("actor_id", actorID),
			slog.Any("error", err),
		)
	}
}

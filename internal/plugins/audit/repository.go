package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditRepository defines the data access contract for audit entries.
type AuditRepository interface {
	// Log inserts entry and sets its ID.
	Log(ctx context.Context, entry *Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// auditRepository implements AuditRepository with MariaDB queries.
type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new repository backed by the given DB pool.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log inserts a new audit entry. Nil details are stored as SQL NULL and a
// zero target as NULL too.
func (r *auditRepository) Log(ctx context.Context, entry *Entry) error {
	query := `INSERT INTO audit_log (actor_id, action, target_id, details, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling audit details: %w", err)
		}
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		nullID(entry.ActorID), entry.Action, nullID(entry.TargetID),
		detailsJSON, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting audit entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// Recent joins users for the actor's display name. Entries whose actor
// has since been deleted show as "Unknown".
func (r *auditRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT a.id, COALESCE(a.actor_id, 0), a.action, COALESCE(a.target_id, 0),
	                 a.details, a.created_at,
	                 COALESCE(u.display_name, 'Unknown') AS actor_name
	          FROM audit_log a
	          LEFT JOIN users u ON u.id = a.actor_id
	          ORDER BY a.created_at DESC, a.id DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var detailsJSON sql.NullString
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &e.TargetID,
			&detailsJSON, &e.CreatedAt, &e.ActorName,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return entries, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

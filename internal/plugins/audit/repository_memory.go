package audit

import (
	"context"
	"sync"
	"time"
)

// maxMemoryEntries bounds the in-memory log; the oldest entries fall off.
const maxMemoryEntries = 1000

// memoryRepository keeps entries in process. Used with the memory
// registry so audit works without MariaDB.
type memoryRepository struct {
	mu      sync.Mutex
	entries []Entry
	lastID  int64
}

// NewMemoryRepository creates an empty in-memory audit log.
func NewMemoryRepository() AuditRepository {
	return &memoryRepository{}
}

func (r *memoryRepository) Log(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.lastID++
	entry.ID = r.lastID

	r.entries = append(r.entries, *entry)
	if len(r.entries) > maxMemoryEntries {
		r.entries = r.entries[len(r.entries)-maxMemoryEntries:]
	}
	return nil
}

func (r *memoryRepository) Recent(_ context.Context, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

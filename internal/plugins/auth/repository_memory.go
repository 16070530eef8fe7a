package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ventacrm/crm/internal/apperror"
)

// memoryRegistry is an in-process Registry for development and tests.
// Identifiers come from a high-water mark that only grows, so deleting the
// highest id never lets a later create reuse it.
type memoryRegistry struct {
	mu     sync.RWMutex
	byID   map[int64]*Credential
	lastID int64
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{byID: make(map[int64]*Credential)}
}

func (r *memoryRegistry) FindByID(_ context.Context, id int64) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.byID[id]
	if !ok {
		return nil, apperror.NewNotFound("user not found")
	}
	c := *cred
	return &c, nil
}

func (r *memoryRegistry) FindByEmail(_ context.Context, email string) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cred := range r.byID {
		if cred.Email == email {
			c := *cred
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("user not found")
}

func (r *memoryRegistry) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *memoryRegistry) List(_ context.Context) ([]Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	principals := make([]Principal, 0, len(r.byID))
	for _, cred := range r.byID {
		principals = append(principals, *cred.Principal())
	}
	sort.Slice(principals, func(i, j int) bool { return principals[i].ID < principals[j].ID })
	return principals, nil
}

func (r *memoryRegistry) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *memoryRegistry) Create(_ context.Context, cred *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == cred.Email {
			return apperror.NewConflict("an account with this email already exists")
		}
	}

	r.lastID++
	cred.ID = r.lastID
	c := *cred
	r.byID[c.ID] = &c
	return nil
}

func (r *memoryRegistry) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return apperror.NewNotFound("user not found")
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryRegistry) UpdateLastLogin(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.byID[id]
	if !ok {
		return apperror.NewNotFound("user not found")
	}
	now := time.Now().UTC()
	cred.LastLoginAt = &now
	return nil
}

// --- Seeding ---

// seedUser is a bootstrap principal with its plaintext secret.
type seedUser struct {
	email    string
	password string
	name     string
	role     Role
}

// defaultSeedUsers are inserted, in order, into an empty registry so a
// fresh install has an admin and two sales users.
var defaultSeedUsers = []seedUser{
	{email: "admin", password: "contra123", name: "Admin User", role: RoleAdmin},
	{email: "vendedor1@crm.com", password: "password123", name: "Juan Vendedor", role: RoleVendedor},
	{email: "vendedor2@crm.com", password: "password123", name: "Ana Vendedora", role: RoleVendedor},
}

// seedHashes caches the argon2 hashes of the fixed seed passwords.
var (
	seedHashes     []string
	seedHashesErr  error
	seedHashesOnce sync.Once
)

// SeedDefaults inserts the bootstrap principals when the registry is
// empty. It is a no-op on a registry that already has entries.
func SeedDefaults(ctx context.Context, reg Registry) error {
	count, err := reg.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting registry entries: %w", err)
	}
	if count > 0 {
		return nil
	}

	seedHashesOnce.Do(func() {
		for _, u := range defaultSeedUsers {
			h, err := hashPassword(u.password)
			if err != nil {
				seedHashesErr = err
				return
			}
			seedHashes = append(seedHashes, h)
		}
	})
	if seedHashesErr != nil {
		return fmt.Errorf("hashing seed passwords: %w", seedHashesErr)
	}

	for i, u := range defaultSeedUsers {
		cred := &Credential{
			Email:      u.email,
			Name:       u.name,
			Role:       u.role,
			SecretHash: seedHashes[i],
			CreatedAt:  time.Now().UTC(),
		}
		if err := reg.Create(ctx, cred); err != nil {
			return fmt.Errorf("seeding %s: %w", u.email, err)
		}
	}

	slog.Info("seeded default principals", slog.Int("count", len(defaultSeedUsers)))
	return nil
}

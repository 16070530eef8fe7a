package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSessionStore(rdb, time.Hour), mr
}

func TestSessionStore_SetRestore(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Set(ctx, testVendedor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token) != sessionTokenBytes*2 {
		t.Errorf("expected %d-char token, got %d", sessionTokenBytes*2, len(token))
	}
	if ttl := mr.TTL(sessionKeyPrefix + token); ttl != time.Hour {
		t.Errorf("expected TTL 1h, got %v", ttl)
	}

	p, err := store.Restore(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || *p != *testVendedor {
		t.Errorf("expected %+v, got %+v", testVendedor, p)
	}
}

func TestSessionStore_RestoreAbsent(t *testing.T) {
	store, _ := newTestStore(t)

	for _, token := range []string{"", "does-not-exist"} {
		p, err := store.Restore(context.Background(), token)
		if err != nil || p != nil {
			t.Errorf("token %q: expected (nil, nil), got (%v, %v)", token, p, err)
		}
	}
}

func TestSessionStore_RestoreAfterExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, _ := store.Set(ctx, testAdmin)
	mr.FastForward(time.Hour + time.Second)

	if p, err := store.Restore(ctx, token); err != nil || p != nil {
		t.Errorf("expected expired session to be absent, got (%v, %v)", p, err)
	}
}

func TestSessionStore_MalformedValueDiscarded(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not json", "{{{"},
		{"unknown role", `{"id":2,"email":"vendedor1@crm.com","name":"Juan","role":"superuser","owner_id":2}`},
		{"missing id", `{"email":"vendedor1@crm.com","role":"vendedor"}`},
		{"missing email", `{"id":2,"role":"vendedor"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mr := newTestStore(t)
			key := sessionKeyPrefix + "bad"
			if err := mr.Set(key, tt.value); err != nil {
				t.Fatal(err)
			}

			p, err := store.Restore(context.Background(), "bad")
			if err != nil || p != nil {
				t.Fatalf("expected (nil, nil), got (%v, %v)", p, err)
			}
			if mr.Exists(key) {
				t.Error("expected malformed session to be deleted")
			}
		})
	}
}

func TestSessionStore_ClearIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, _ := store.Set(ctx, testAdmin)
	for i := 0; i < 2; i++ {
		if err := store.Clear(ctx, token); err != nil {
			t.Fatalf("clear %d: %v", i, err)
		}
	}
	if err := store.Clear(ctx, ""); err != nil {
		t.Errorf("clearing empty token: %v", err)
	}
	if p, _ := store.Restore(ctx, token); p != nil {
		t.Error("expected session to be gone")
	}
}

func TestSessionStore_IndependentSessions(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, _ := store.Set(ctx, testVendedor)
	second, _ := store.Set(ctx, testVendedor)
	if first == second {
		t.Fatal("expected distinct tokens")
	}

	if err := store.Clear(ctx, first); err != nil {
		t.Fatal(err)
	}
	if p, _ := store.Restore(ctx, second); p == nil {
		t.Error("clearing one session must leave the other valid")
	}
}

func TestSessionStore_RevokeAll(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	a, _ := store.Set(ctx, testVendedor)
	b, _ := store.Set(ctx, testVendedor)
	other, _ := store.Set(ctx, testAdmin)

	n, err := store.RevokeAll(ctx, testVendedor.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 revoked, got %d", n)
	}
	for _, tok := range []string{a, b} {
		if p, _ := store.Restore(ctx, tok); p != nil {
			t.Errorf("session %s survived revocation", tok)
		}
	}
	if p, _ := store.Restore(ctx, other); p == nil {
		t.Error("another principal's session was revoked")
	}
	if mr.Exists(principalSessionsKey(testVendedor.ID)) {
		t.Error("expected session index to be removed")
	}

	// Revoking a principal with no sessions is fine.
	if n, err := store.RevokeAll(ctx, 999); err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
}

func TestSessionStore_BackendDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	if _, err := store.Restore(context.Background(), "any"); err == nil {
		t.Error("expected an error when Redis is unreachable")
	}
	if _, err := store.Set(context.Background(), testAdmin); err == nil {
		t.Error("expected an error when Redis is unreachable")
	}
}

func TestSessionStore_ClearRemovesIndexEntry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	first, _ := store.Set(ctx, testVendedor)
	second, _ := store.Set(ctx, testVendedor)

	if err := store.Clear(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	members, err := mr.Members(principalSessionsKey(testVendedor.ID))
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	if len(members) != 1 || members[0] != second {
		t.Errorf("expected index to hold only %q, got %v", second, members)
	}
}

// hookedRegistry runs onFind once, right after a successful FindByEmail.
type hookedRegistry struct {
	Registry
	onFind func()
}

func (r *hookedRegistry) FindByEmail(ctx context.Context, email string) (*Credential, error) {
	cred, err := r.Registry.FindByEmail(ctx, email)
	if err == nil && r.onFind != nil {
		hook := r.onFind
		r.onFind = nil
		hook()
	}
	return cred, err
}

func TestLogin_DeleteDuringLoginLeavesNoSession(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mem := NewMemoryRegistry()
	if err := SeedDefaults(ctx, mem); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	reg := &hookedRegistry{Registry: mem}
	svc := NewAuthService(reg, store, nil)
	reg.onFind = func() {
		if err := svc.DeletePrincipal(ctx, testAdmin, testVendedor.ID); err != nil {
			t.Errorf("deleting during login: %v", err)
		}
	}

	token, _, err := svc.Login(ctx, LoginInput{Email: "vendedor1@crm.com", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v (token %q)", err, token)
	}

	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, sessionKeyPrefix) || strings.HasPrefix(key, principalSessionsPrefix) {
			t.Errorf("deleted principal left session data behind: %s", key)
		}
	}
}

func TestRegistryCheckedRestorer(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	reg := NewMemoryRegistry()
	if err := SeedDefaults(ctx, reg); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	restorer := NewRegistryCheckedRestorer(store, reg)

	token, _ := store.Set(ctx, testVendedor)
	p, err := restorer.Restore(ctx, token)
	if err != nil || p == nil || p.ID != testVendedor.ID {
		t.Fatalf("expected vendedor, got %v, %v", p, err)
	}

	// Removed from the registry without going through the service.
	if err := reg.Delete(ctx, testVendedor.ID); err != nil {
		t.Fatal(err)
	}
	p, err = restorer.Restore(ctx, token)
	if err != nil || p != nil {
		t.Fatalf("expected (nil, nil) for a deleted principal, got %v, %v", p, err)
	}
	if mr.Exists(sessionKeyPrefix + token) {
		t.Error("expected orphaned session to be deleted")
	}
}

func TestRegistryCheckedRestorer_ReassignedID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// A fresh registry hands id 4 to someone else than the session owner.
	reg := NewMemoryRegistry()
	if err := SeedDefaults(ctx, reg); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	other := &Credential{Email: "otro@crm.com", Name: "Otro", Role: RoleVendedor}
	if err := reg.Create(ctx, other); err != nil || other.ID != 4 {
		t.Fatalf("expected id 4, got %d (%v)", other.ID, err)
	}

	token, _ := store.Set(ctx, &Principal{ID: 4, Email: "luis@crm.com", Name: "Luis", Role: RoleVendedor, OwnerID: 4})
	p, err := NewRegistryCheckedRestorer(store, reg).Restore(ctx, token)
	if err != nil || p != nil {
		t.Fatalf("expected session for a reassigned id to be refused, got %v, %v", p, err)
	}
}

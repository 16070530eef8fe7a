package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ventacrm/crm/internal/apperror"
	"github.com/ventacrm/crm/internal/metrics"
)

// sessionKeyPrefix is the Redis key prefix for persisted principals.
const sessionKeyPrefix = "crm_user:"

// principalSessionsPrefix indexes every live token of one principal so
// they can be revoked together.
const principalSessionsPrefix = "crm_user_sessions:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// SessionStore holds the authenticated principal for each session token.
// There is exactly zero or one principal per token.
type SessionStore interface {
	// Set persists p under a new token and returns the token.
	Set(ctx context.Context, p *Principal) (string, error)

	// Restore returns the principal for token, or nil when the session is
	// absent. A stored value that can't be decoded is deleted and treated
	// as absent.
	Restore(ctx context.Context, token string) (*Principal, error)

	// Clear removes the session. Clearing an absent session is not an error.
	Clear(ctx context.Context, token string) error

	// RevokeAll removes every session of the given principal and returns
	// how many were removed.
	RevokeAll(ctx context.Context, principalID int64) (int, error)
}

// redisSessionStore implements SessionStore on Redis with a TTL per key.
type redisSessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{redis: rdb, ttl: ttl}
}

func (s *redisSessionStore) Set(ctx context.Context, p *Principal) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	data, err := json.Marshal(newSession(p))
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	indexKey := principalSessionsKey(p.ID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+token, data, s.ttl)
		pipe.SAdd(ctx, indexKey, token)
		pipe.Expire(ctx, indexKey, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, nil
}

func (s *redisSessionStore) Restore(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, nil
	}
	key := sessionKeyPrefix + token

	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil || !session.valid() {
		metrics.MalformedSessions.Inc()
		slog.Warn("discarding malformed session",
			slog.String("kind", "malformed_session"),
			slog.Any("error", err),
		)
		if delErr := s.redis.Del(ctx, key).Err(); delErr != nil {
			slog.Warn("failed to delete malformed session", slog.Any("error", delErr))
		}
		return nil, nil
	}

	return session.Principal(), nil
}

func (s *redisSessionStore) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	key := sessionKeyPrefix + token

	// The stored value names the principal whose index holds the token.
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	decoded := json.Unmarshal(data, &session) == nil && session.ID > 0

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if decoded {
			pipe.SRem(ctx, principalSessionsKey(session.ID), token)
		}
		return nil
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}
	return nil
}

func (s *redisSessionStore) RevokeAll(ctx context.Context, principalID int64) (int, error) {
	indexKey := principalSessionsKey(principalID)

	tokens, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("listing sessions for principal: %w", err)
	}

	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		keys = append(keys, sessionKeyPrefix+t)
	}

	var removed int64
	if len(keys) > 0 {
		removed, err = s.redis.Del(ctx, keys...).Result()
		if err != nil {
			return 0, fmt.Errorf("revoking sessions: %w", err)
		}
	}
	if err := s.redis.Del(ctx, indexKey).Err(); err != nil {
		return int(removed), fmt.Errorf("deleting session index: %w", err)
	}

	return int(removed), nil
}

func principalSessionsKey(id int64) string {
	return principalSessionsPrefix + strconv.FormatInt(id, 10)
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// registryCheckedRestorer resolves a session only while its principal
// still exists in the registry under the same handle.
type registryCheckedRestorer struct {
	sessions SessionStore
	registry Registry
}

// NewRegistryCheckedRestorer returns the SessionRestorer LoadSession
// should use. A session whose principal was deleted, or whose id now
// belongs to a different handle (an in-memory registry restarted under
// live Redis sessions), is cleared and treated as absent. The returned
// principal carries the registry's current name and role.
func NewRegistryCheckedRestorer(sessions SessionStore, registry Registry) SessionRestorer {
	return &registryCheckedRestorer{sessions: sessions, registry: registry}
}

func (r *registryCheckedRestorer) Restore(ctx context.Context, token string) (*Principal, error) {
	p, err := r.sessions.Restore(ctx, token)
	if err != nil || p == nil {
		return p, err
	}

	cred, err := r.registry.FindByID(ctx, p.ID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, apperror.NewInternal(fmt.Errorf("confirming session principal: %w", err))
	case cred.Email == p.Email:
		return cred.Principal(), nil
	}

	slog.Warn("discarding session of unknown principal",
		slog.String("kind", "orphaned_session"),
		slog.Int64("principal_id", p.ID),
	)
	if err := r.sessions.Clear(ctx, token); err != nil {
		return nil, err
	}
	return nil, nil
}

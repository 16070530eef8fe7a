package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ventacrm/crm/internal/apperror"
	"github.com/ventacrm/crm/internal/metrics"
	"github.com/ventacrm/crm/internal/sanitize"
)

// Activity actions reported to the ActivityLogger.
const (
	ActionLogin            = "session.login"
	ActionLoginFailed      = "session.login_failed"
	ActionLogout           = "session.logout"
	ActionPrincipalCreated = "principal.created"
	ActionPrincipalDeleted = "principal.deleted"
)

// Limits on administratively created principals.
const (
	minSecretLen = 8
	maxSecretLen = 128
	maxNameLen   = 100
	maxEmailLen  = 255
)

// ActivityLogger receives security-relevant events. Implementations must
// not block the caller on failure; the audit plugin satisfies this.
type ActivityLogger interface {
	LogActivity(ctx context.Context, actorID int64, action string, targetID int64, details map[string]any)
}

// AuthService defines the business logic contract for authentication and
// registry administration. Handlers call these methods -- they never touch
// the registry or session store directly.
type AuthService interface {
	// Authenticate verifies a handle and secret against the registry and
	// returns the principal with no secret material. Unknown handles and
	// wrong secrets both fail with ErrInvalidCredentials.
	Authenticate(ctx context.Context, handle, secret string) (*Principal, error)

	// Login authenticates and then persists a new session, returning its
	// token. No session is written if ctx is done by then.
	Login(ctx context.Context, input LoginInput) (token string, p *Principal, err error)

	// Logout clears the session. Safe to call repeatedly.
	Logout(ctx context.Context, token string) error

	// Admin-only registry operations. actor is the calling principal.
	ListPrincipals(ctx context.Context, actor *Principal) ([]Principal, error)
	CreatePrincipal(ctx context.Context, actor *Principal, input CreatePrincipalInput) (*Principal, error)
	DeletePrincipal(ctx context.Context, actor *Principal, id int64) error
}

// authService implements AuthService with argon2id verification and a
// Redis session store.
type authService struct {
	registry Registry
	sessions SessionStore
	activity ActivityLogger
}

// NewAuthService creates a new auth service with the given dependencies.
// activity may be nil.
func NewAuthService(registry Registry, sessions SessionStore, activity ActivityLogger) AuthService {
	return &authService{
		registry: registry,
		sessions: sessions,
		activity: activity,
	}
}

// Authenticate looks the handle up case-insensitively and compares the
// secret case-sensitively in constant time.
func (s *authService) Authenticate(ctx context.Context, handle, secret string) (*Principal, error) {
	email := sanitize.Email(handle)
	if email == "" || secret == "" {
		metrics.LoginAttempts.WithLabelValues(metrics.LoginInvalidCredentials).Inc()
		return nil, newErr(ErrInvalidCredentials)
	}

	cred, err := s.registry.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Same work as a real check so timing doesn't leak the handle.
			burnVerification(secret)
			metrics.LoginAttempts.WithLabelValues(metrics.LoginInvalidCredentials).Inc()
			return nil, newErr(ErrInvalidCredentials)
		}
		metrics.LoginAttempts.WithLabelValues(metrics.LoginError).Inc()
		return nil, apperror.NewInternal(fmt.Errorf("finding principal: %w", err))
	}

	if !verifyPassword(secret, cred.SecretHash) {
		metrics.LoginAttempts.WithLabelValues(metrics.LoginInvalidCredentials).Inc()
		return nil, newErr(ErrInvalidCredentials)
	}

	metrics.LoginAttempts.WithLabelValues(metrics.LoginSuccess).Inc()
	return cred.Principal(), nil
}

// Login authenticates and creates a session. A caller that has gone away
// (cancelled ctx) gets no session, so a stale success can't resurrect a
// login the user already abandoned.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *Principal, error) {
	p, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logActivity(ctx, 0, ActionLoginFailed, 0, map[string]any{"email": sanitize.Email(input.Email)})
		}
		return "", nil, err
	}

	if err := ctx.Err(); err != nil {
		slog.Debug("login abandoned by client", slog.Int64("principal_id", p.ID))
		return "", nil, loginAbandoned(err)
	}

	token, err := s.sessions.Set(ctx, p)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	// A delete between Authenticate and Set ran RevokeAll before this
	// session existed, so the registry is checked again now that it does.
	if _, err := s.registry.FindByID(ctx, p.ID); err != nil {
		if clearErr := s.sessions.Clear(context.WithoutCancel(ctx), token); clearErr != nil {
			slog.Error("failed to clear session of missing principal",
				slog.Int64("principal_id", p.ID),
				slog.Any("error", clearErr),
			)
		}
		if errors.Is(err, ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues(metrics.LoginInvalidCredentials).Inc()
			return "", nil, newErr(ErrInvalidCredentials)
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("confirming principal: %w", err))
	}

	// Non-critical bookkeeping.
	if err := s.registry.UpdateLastLogin(ctx, p.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.Int64("principal_id", p.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("principal logged in",
		slog.Int64("principal_id", p.ID),
		slog.String("role", string(p.Role)),
	)
	s.logActivity(ctx, p.ID, ActionLogin, p.ID, nil)

	return token, p, nil
}

// Logout clears the session behind token.
func (s *authService) Logout(ctx context.Context, token string) error {
	p, err := s.sessions.Restore(ctx, token)
	if err != nil {
		slog.Warn("restoring session during logout", slog.Any("error", err))
	}
	if err := s.sessions.Clear(ctx, token); err != nil {
		return err
	}
	if p != nil {
		s.logActivity(ctx, p.ID, ActionLogout, p.ID, nil)
	}
	return nil
}

// ListPrincipals returns every registry entry with secrets stripped.
func (s *authService) ListPrincipals(ctx context.Context, actor *Principal) ([]Principal, error) {
	if !actor.IsAdmin() {
		return nil, newErr(ErrAdminRequired)
	}

	principals, err := s.registry.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing principals: %w", err))
	}
	return principals, nil
}

// CreatePrincipal adds a registry entry. New entries always get the
// vendedor role; the registry assigns a never-reused id.
func (s *authService) CreatePrincipal(ctx context.Context, actor *Principal, input CreatePrincipalInput) (*Principal, error) {
	if !actor.IsAdmin() {
		return nil, newErr(ErrAdminRequired)
	}

	name := sanitize.Name(input.Name)
	email := sanitize.Email(input.Email)
	if msg := validateCreateInput(name, email, input.Password); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	// Check before doing expensive hashing.
	exists, err := s.registry.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	cred := &Credential{
		Email:      email,
		Name:       name,
		Role:       RoleVendedor,
		SecretHash: hash,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.registry.Create(ctx, cred); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating principal: %w", err))
	}

	slog.Info("principal created",
		slog.Int64("principal_id", cred.ID),
		slog.Int64("by", actor.ID),
	)
	s.logActivity(ctx, actor.ID, ActionPrincipalCreated, cred.ID, map[string]any{"email": cred.Email})

	return cred.Principal(), nil
}

// DeletePrincipal removes a registry entry and revokes its sessions. The
// acting principal can never delete itself, whatever the caller checked.
func (s *authService) DeletePrincipal(ctx context.Context, actor *Principal, id int64) error {
	if !actor.IsAdmin() {
		return newErr(ErrAdminRequired)
	}
	if actor.ID == id {
		return newErr(ErrForbiddenSelfDelete)
	}

	if err := s.registry.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return newErr(ErrNotFound)
		}
		return apperror.NewInternal(fmt.Errorf("deleting principal: %w", err))
	}

	revoked, err := s.sessions.RevokeAll(ctx, id)
	if err != nil {
		s.logActivity(ctx, actor.ID, ActionPrincipalDeleted, id, map[string]any{"sessions_revoked": false})
		return apperror.NewInternal(fmt.Errorf("revoking sessions of deleted principal %d: %w", id, err))
	}

	slog.Info("principal deleted",
		slog.Int64("principal_id", id),
		slog.Int64("by", actor.ID),
		slog.Int("sessions_revoked", revoked),
	)
	s.logActivity(ctx, actor.ID, ActionPrincipalDeleted, id, nil)

	return nil
}

func (s *authService) logActivity(ctx context.Context, actorID int64, action string, targetID int64, details map[string]any) {
	if s.activity == nil {
		return
	}
	s.activity.LogActivity(ctx, actorID, action, targetID, details)
}

// validateCreateInput returns a user-facing message or empty string.
func validateCreateInput(name, email, password string) string {
	switch {
	case name == "":
		return "name is required"
	case len(name) > maxNameLen:
		return fmt.Sprintf("name must be at most %d characters", maxNameLen)
	case email == "":
		return "email is required"
	case len(email) > maxEmailLen:
		return fmt.Sprintf("email must be at most %d characters", maxEmailLen)
	case len(password) < minSecretLen:
		return fmt.Sprintf("password must be at least %d characters", minSecretLen)
	case len(password) > maxSecretLen:
		return fmt.Sprintf("password must be at most %d characters", maxSecretLen)
	}
	return ""
}

package auth

import (
	"context"

	"github.com/labstack/echo/v4"
)

// contextKeyPrincipal is the Echo context key holding the restored
// principal. Other plugins read it through GetPrincipal.
const contextKeyPrincipal = "auth_principal"

// SessionRestorer is the slice of SessionStore the middleware needs.
type SessionRestorer interface {
	Restore(ctx context.Context, token string) (*Principal, error)
}

// LoadSession returns middleware that restores the principal behind the
// session cookie before any handler or gate decision runs. It never
// rejects a request: an absent or discarded session just leaves the
// principal unset. A cookie that no longer resolves is cleared.
func LoadSession(store SessionRestorer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return next(c)
			}

			p, err := store.Restore(c.Request().Context(), token)
			if err != nil {
				return err
			}
			if p == nil {
				clearSessionCookie(c)
				return next(c)
			}

			c.Set(contextKeyPrincipal, p)
			return next(c)
		}
	}
}

// --- Exported getters for other plugins ---

// GetPrincipal returns the authenticated principal, or nil when the
// request carries no valid session.
func GetPrincipal(c echo.Context) *Principal {
	p, ok := c.Get(contextKeyPrincipal).(*Principal)
	if !ok {
		return nil
	}
	return p
}

// IsAuthenticated is exactly GetPrincipal(c) != nil.
func IsAuthenticated(c echo.Context) bool {
	return GetPrincipal(c) != nil
}

// SetPrincipal stores p on the context. Exposed for tests in other
// packages that need an authenticated request without a session store.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(contextKeyPrincipal, p)
}

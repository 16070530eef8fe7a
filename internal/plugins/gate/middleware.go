package gate

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ventacrm/crm/internal/metrics"
	"github.com/ventacrm/crm/internal/middleware"
	"github.com/ventacrm/crm/internal/plugins/auth"
)

// Require returns middleware enforcing req on every route it wraps. It must
// run after auth.LoadSession so the principal is already resolved.
//
// Browsers get a 303 to the decision's target, HTMX requests an
// HX-Redirect header, and /api callers a 401 or 403 JSON body.
func Require(req Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := auth.GetPrincipal(c)
			decision := Decide(p, req)
			if decision == Allow {
				return next(c)
			}

			path := c.Request().URL.Path
			if decision == DenyUnauthenticated {
				metrics.GateDenials.WithLabelValues(metrics.DenyUnauthenticated).Inc()
			} else {
				metrics.GateDenials.WithLabelValues(metrics.DenyForbidden).Inc()
				slog.Warn("access denied",
					slog.Int64("principal_id", p.ID),
					slog.String("role", string(p.Role)),
					slog.String("path", path),
					slog.String("requirement", req.String()),
				)
			}

			if middleware.IsAPI(c) {
				code, msg := http.StatusUnauthorized, "authentication required"
				if decision == DenyForbidden {
					code, msg = http.StatusForbidden, "insufficient role"
				}
				return c.JSON(code, map[string]string{
					"error":   decision.String(),
					"message": msg,
				})
			}

			target := decision.RedirectTarget()
			if middleware.IsHTMX(c) {
				c.Response().Header().Set("HX-Redirect", target)
				return c.NoContent(http.StatusNoContent)
			}
			return c.Redirect(http.StatusSeeOther, target)
		}
	}
}

// RequireAuth is Require(AnyAuthenticated()).
func RequireAuth() echo.MiddlewareFunc {
	return Require(AnyAuthenticated())
}

// RequireAdmin is Require(RequireRole(auth.RoleAdmin)).
func RequireAdmin() echo.MiddlewareFunc {
	return Require(RequireRole(auth.RoleAdmin))
}

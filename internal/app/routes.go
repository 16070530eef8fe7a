package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ventacrm/crm/internal/metrics"
	"github.com/ventacrm/crm/internal/middleware"
	"github.com/ventacrm/crm/internal/plugins/admin"
	"github.com/ventacrm/crm/internal/plugins/audit"
	"github.com/ventacrm/crm/internal/plugins/auth"
	"github.com/ventacrm/crm/internal/plugins/gate"
	"github.com/ventacrm/crm/internal/plugins/workspace"
	"github.com/ventacrm/crm/internal/templates/layouts"
)

// adminViews are the role-gated entries of the route table. Their handlers
// live in the admin and audit plugins; they are listed here for the nav.
var adminViews = []workspace.View{
	{Path: admin.UsersPath, Title: "Usuarios", Requirement: gate.RequireRole(auth.RoleAdmin)},
	{Path: audit.PagePath, Title: "Auditoría", Requirement: gate.RequireRole(auth.RoleAdmin)},
}

// RegisterRoutes sets up all application routes. This is the single place
// where plugin routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	nav := workspace.Nav(append(append([]workspace.View{}, workspace.Views...), adminViews...)...)
	middleware.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		d := layouts.Data{
			CSRFToken:  middleware.GetCSRFToken(c),
			ActivePath: c.Request().URL.Path,
			Nav:        nav,
		}
		if p := auth.GetPrincipal(c); p != nil {
			d.User = &layouts.User{
				ID:      p.ID,
				Name:    p.Name,
				Email:   p.Email,
				Role:    string(p.Role),
				IsAdmin: p.IsAdmin(),
			}
		}
		return layouts.WithData(ctx, d)
	}

	// --- Public routes ---

	// The root always lands on the default view; the gate sends anonymous
	// visitors on to login from there.
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, auth.DefaultPath)
	})

	e.GET("/healthz", a.healthz)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	loginLimiter := middleware.RateLimit(a.Config.Auth.LoginRatePerMinute, time.Minute)

	authHandler := auth.NewHandler(a.AuthService, a.Config.Auth.SessionTTL)
	auth.RegisterRoutes(e, authHandler, loginLimiter)

	// --- Gated views ---

	workspace.RegisterRoutes(e, workspace.NewHandler())

	adminHandler := admin.NewHandler(a.AuthService)
	adminGroup := admin.RegisterRoutes(e, adminHandler)

	auditHandler := audit.NewHandler(a.AuditService)
	audit.RegisterRoutes(adminGroup, auditHandler)

	// --- JSON API ---

	api := e.Group("/api/v1")
	auth.RegisterAPIRoutes(api, authHandler, loginLimiter, gate.RequireAuth())
	adminAPI := admin.RegisterAPIRoutes(api, adminHandler)
	audit.RegisterAPIRoutes(adminAPI, auditHandler)
}

// healthz reports whether the session store and, when configured, the
// database are reachable.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "redis": "ok"}
	code := http.StatusOK

	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "unreachable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	if a.DB != nil {
		status["database"] = "ok"
		if err := a.DB.PingContext(ctx); err != nil {
			status["database"] = "unreachable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	return c.JSON(code, status)
}

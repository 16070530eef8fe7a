// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, Redis client, Echo
// instance) and wires the plugins together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ventacrm/crm/internal/apperror"
	"github.com/ventacrm/crm/internal/config"
	"github.com/ventacrm/crm/internal/middleware"
	"github.com/ventacrm/crm/internal/plugins/audit"
	"github.com/ventacrm/crm/internal/plugins/auth"
	"github.com/ventacrm/crm/internal/templates/pages"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	Config *config.Config

	// DB is nil when the memory registry is selected.
	DB *sql.DB

	// Redis backs the session store.
	Redis *redis.Client

	Echo *echo.Echo

	Registry     auth.Registry
	Sessions     auth.SessionStore
	AuthService  auth.AuthService
	AuditService audit.AuditService
}

// New creates the App, picks the registry and audit backends from
// cfg.Auth.RegistryDriver, and installs global middleware and the error
// handler. Routes are registered separately by RegisterRoutes.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*App, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// RealIP feeds the login rate limiter, so only configured proxies may
	// set forwarding headers.
	if err := middleware.TrustedProxies(e, cfg.TrustedProxies); err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
	}

	var auditRepo audit.AuditRepository
	switch cfg.Auth.RegistryDriver {
	case config.RegistryMariaDB:
		if db == nil {
			return nil, errors.New("mariadb registry selected but no database connection")
		}
		app.Registry = auth.NewUserRepository(db)
		auditRepo = audit.NewAuditRepository(db)
	case config.RegistryMemory:
		app.Registry = auth.NewMemoryRegistry()
		auditRepo = audit.NewMemoryRepository()
	default:
		return nil, fmt.Errorf("unknown registry driver %q", cfg.Auth.RegistryDriver)
	}

	app.AuditService = audit.NewAuditService(auditRepo)
	app.Sessions = auth.NewSessionStore(rdb, cfg.Auth.SessionTTL)
	app.AuthService = auth.NewAuthService(app.Registry, app.Sessions, app.AuditService)

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler

	return app, nil
}

// Seed inserts the bootstrap principals into an empty registry.
func (a *App) Seed(ctx context.Context) error {
	if err := auth.SeedDefaults(ctx, a.Registry); err != nil {
		return fmt.Errorf("seeding registry: %w", err)
	}
	return nil
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, the session loader last,
// so every handler and gate decision sees the restored principal.
func (a *App) setupMiddleware() {
	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.Metrics())
	a.Echo.Use(middleware.SecurityHeaders())

	a.Echo.Use(middleware.CORS(a.Config.CORSOrigins))

	a.Echo.Use(middleware.CSRF(a.Config.Auth.SecretKey))
	a.Echo.Use(auth.LoadSession(auth.NewRegistryCheckedRestorer(a.Sessions, a.Registry)))
}

// errorHandler maps domain errors (AppError) to HTTP responses: JSON for
// /api callers, error pages for browsers, and a redirect to login for a
// browser 401.
//
// For HTMX requests that hit errors, HX-Retarget and HX-Reswap make the
// error page replace the body instead of landing in a partial target.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errType := apperror.TypeInternal
	message := "An unexpected error occurred"

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		errType = appErr.Type
		message = appErr.Message

		if appErr.Internal != nil && appErr.Code >= http.StatusInternalServerError {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", middleware.GetRequestID(c)),
			)
		}
	case errors.As(err, &echoErr):
		code = echoErr.Code
		errType = strings.ToLower(strings.ReplaceAll(http.StatusText(code), " ", "_"))
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = defaultErrorMessage(code)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("request_id", middleware.GetRequestID(c)),
		)
	}

	if middleware.IsAPI(c) {
		_ = c.JSON(code, map[string]string{
			"error":   errType,
			"message": message,
		})
		return
	}

	if middleware.IsHTMX(c) {
		if code == http.StatusUnauthorized {
			c.Response().Header().Set("HX-Redirect", auth.LoginPath)
			_ = c.NoContent(http.StatusNoContent)
			return
		}
		c.Response().Header().Set("HX-Retarget", "body")
		c.Response().Header().Set("HX-Reswap", "innerHTML")
	}

	if code == http.StatusUnauthorized {
		_ = c.Redirect(http.StatusSeeOther, auth.LoginPath)
		return
	}

	if code == http.StatusNotFound && message == "Not Found" {
		message = defaultErrorMessage(code)
	}
	_ = middleware.Render(c, code, pages.ErrorPage(code, message))
}

// defaultErrorMessage returns a user-facing message for common status
// codes when the error carried none.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "La solicitud no es válida."
	case http.StatusUnauthorized:
		return "Necesitas iniciar sesión para ver esta página."
	case http.StatusForbidden:
		return "No tienes permiso para acceder a este recurso."
	case http.StatusNotFound:
		return "La página que buscas no existe."
	case http.StatusMethodNotAllowed:
		return "Esta acción no está permitida."
	case http.StatusTooManyRequests:
		return "Demasiados intentos. Espera un momento."
	case http.StatusServiceUnavailable:
		return "El servicio no está disponible. Intenta más tarde."
	default:
		return "Ocurrió un error inesperado."
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting CRM server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
		slog.String("registry", a.Config.Auth.RegistryDriver),
	)
	return a.Echo.Start(addr)
}

// Shutdown stops the HTTP server, letting in-flight requests finish until
// ctx expires.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the public auth routes on the given Echo instance.
// The login POST is wrapped in the supplied rate limiter to blunt
// credential stuffing.
func RegisterRoutes(e *echo.Echo, h *Handler, loginLimiter echo.MiddlewareFunc) {
	e.GET(LoginPath, h.LoginForm)
	e.POST(LoginPath, h.Login, loginLimiter)
	e.POST("/logout", h.Logout)
}

// RegisterAPIRoutes sets up the JSON auth endpoints on the /api/v1 group.
// The /me route is gated by the caller.
func RegisterAPIRoutes(api *echo.Group, h *Handler, loginLimiter, requireAuth echo.MiddlewareFunc) {
	api.POST("/auth/login", h.APILogin, loginLimiter)
	api.POST("/auth/logout", h.APILogout)
	api.GET("/auth/me", h.APIMe, requireAuth)
}

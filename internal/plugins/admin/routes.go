package admin

import (
	"github.com/labstack/echo/v4"

	"github.com/ventacrm/crm/internal/plugins/gate"
)

// RegisterRoutes mounts the user management views under /admin, gated to
// the admin role. Returns the group so other plugins can add admin views.
func RegisterRoutes(e *echo.Echo, h *Handler) *echo.Group {
	admin := e.Group("/admin", gate.RequireAdmin())

	admin.GET("/users", h.Users)
	admin.POST("/users", h.CreateUser)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.POST("/users/:id/delete", h.DeleteUser)

	return admin
}

// RegisterAPIRoutes mounts the JSON mirror on the /api/v1 group and
// returns the gated /api/v1/admin group.
func RegisterAPIRoutes(api *echo.Group, h *Handler) *echo.Group {
	admin := api.Group("/admin", gate.RequireAdmin())

	admin.GET("/users", h.APIList)
	admin.POST("/users", h.APICreate)
	admin.DELETE("/users/:id", h.APIDelete)

	return admin
}

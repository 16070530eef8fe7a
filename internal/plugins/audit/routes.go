package audit

import (
	"github.com/labstack/echo/v4"
)

// PagePath is the admin audit view.
const PagePath = "/admin/audit"

// RegisterRoutes mounts the audit view on the admin group, which already
// carries the admin gate.
func RegisterRoutes(admin *echo.Group, h *Handler) {
	admin.GET("/audit", h.Page)
}

// RegisterAPIRoutes mounts the JSON listing on the /api/v1/admin group.
func RegisterAPIRoutes(adminAPI *echo.Group, h *Handler) {
	adminAPI.GET("/audit", h.APIList)
}

package workspace

import (
	"github.com/labstack/echo/v4"

	"github.com/ventacrm/crm/internal/plugins/gate"
)

// RegisterRoutes mounts every entry of Views behind its requirement.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	for _, v := range Views {
		e.GET(v.Path, h.Show(v), gate.Require(v.Requirement))
	}
}

package workspace

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ventacrm/crm/internal/middleware"
	"github.com/ventacrm/crm/internal/plugins/auth"
)

// Handler renders feature views.
type Handler struct{}

// NewHandler creates a new workspace handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Show returns the handler for v. The gate has already admitted the
// request, so a principal is always present.
func (h *Handler) Show(v View) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := auth.GetPrincipal(c)
		if p == nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "missing principal")
		}
		return middleware.Render(c, http.StatusOK, ViewPage(v, *p))
	}
}

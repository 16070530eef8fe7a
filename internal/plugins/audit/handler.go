package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ventacrm/crm/internal/middleware"
)

// Handler handles HTTP requests for the audit log. Handlers are thin:
// bind request, call service, render response.
type Handler struct {
	service AuditService
}

// NewHandler creates a new audit handler.
func NewHandler(service AuditService) *Handler {
	return &Handler{service: service}
}

// Page renders the most recent entries (GET /admin/audit).
func (h *Handler) Page(c echo.Context) error {
	entries, err := h.service.Recent(c.Request().Context(), recentLimit)
	if err != nil {
		return err
	}
	return middleware.Render(c, http.StatusOK, AuditPage(entries))
}

// APIList returns recent entries as JSON (GET /api/v1/admin/audit).
// ?limit= is optional.
func (h *Handler) APIList(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.service.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

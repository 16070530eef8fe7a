// Package admin provides registry administration: listing, creating, and
// deleting principals. Every route here sits behind the admin role.
package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ventacrm/crm/internal/apperror"
	"github.com/ventacrm/crm/internal/middleware"
	"github.com/ventacrm/crm/internal/plugins/auth"
)

// UsersPath is the user management view.
const UsersPath = "/admin/users"

// Handler handles admin HTTP requests. Depends on the auth service only;
// no direct registry access.
type Handler struct {
	authService auth.AuthService
}

// NewHandler creates a new admin handler.
func NewHandler(authService auth.AuthService) *Handler {
	return &Handler{authService: authService}
}

// Users renders the user management page (GET /admin/users).
func (h *Handler) Users(c echo.Context) error {
	return h.renderUsers(c, http.StatusOK, UsersPageData{})
}

// CreateUser handles the create form (POST /admin/users). Validation and
// conflict errors re-render the page with the message and the submitted
// name and email.
func (h *Handler) CreateUser(c echo.Context) error {
	var req auth.CreatePrincipalRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	created, err := h.authService.CreatePrincipal(c.Request().Context(), auth.GetPrincipal(c), auth.CreatePrincipalInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if !isUserFacing(err) {
			return err
		}
		return h.renderUsers(c, apperror.SafeCode(err), UsersPageData{
			Error:     apperror.SafeMessage(err),
			FormName:  req.Name,
			FormEmail: req.Email,
		})
	}

	return h.renderUsers(c, http.StatusOK, UsersPageData{
		Notice: "Usuario " + created.Email + " creado",
	})
}

// DeleteUser removes a principal (DELETE /admin/users/:id, or POST
// /admin/users/:id/delete from plain forms).
func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.authService.DeletePrincipal(c.Request().Context(), auth.GetPrincipal(c), id); err != nil {
		if !isUserFacing(err) {
			return err
		}
		return h.renderUsers(c, apperror.SafeCode(err), UsersPageData{Error: apperror.SafeMessage(err)})
	}

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", UsersPath)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, UsersPath)
}

// --- JSON API ---

// APIList returns every principal (GET /api/v1/admin/users).
func (h *Handler) APIList(c echo.Context) error {
	principals, err := h.authService.ListPrincipals(c.Request().Context(), auth.GetPrincipal(c))
	if err != nil {
		return err
	}
	if principals == nil {
		principals = []auth.Principal{}
	}
	return c.JSON(http.StatusOK, map[string]any{"users": principals})
}

// APICreate creates a principal (POST /api/v1/admin/users).
func (h *Handler) APICreate(c echo.Context) error {
	var req auth.CreatePrincipalRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	created, err := h.authService.CreatePrincipal(c.Request().Context(), auth.GetPrincipal(c), auth.CreatePrincipalInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "user": created})
}

// APIDelete removes a principal (DELETE /api/v1/admin/users/:id).
func (h *Handler) APIDelete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.authService.DeletePrincipal(c.Request().Context(), auth.GetPrincipal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) renderUsers(c echo.Context, status int, data UsersPageData) error {
	actor := auth.GetPrincipal(c)
	principals, err := h.authService.ListPrincipals(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	data.Users = principals
	if actor != nil {
		data.CurrentID = actor.ID
	}
	return middleware.Render(c, status, UsersPage(data))
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid user id")
	}
	return id, nil
}

// isUserFacing reports whether err should be shown inline on the users page
// rather than handed to the error handler.
func isUserFacing(err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code < http.StatusInternalServerError
}

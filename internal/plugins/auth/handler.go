package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ventacrm/crm/internal/apperror"
	"github.com/ventacrm/crm/internal/middleware"
)

// Navigation targets shared with the gate and the route controller.
const (
	// LoginPath is where unauthenticated navigation is sent.
	LoginPath = "/login"

	// DefaultPath is the home view for authenticated principals.
	DefaultPath = "/dashboard"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "crm_session"

// Handler handles HTTP requests for authentication (login, logout).
// Handlers are thin: they bind the request, call the service, and render
// the response. No business logic lives here.
type Handler struct {
	service    AuthService
	sessionTTL time.Duration
}

// NewHandler creates a new auth handler. sessionTTL sets the cookie
// lifetime to match the server-side session.
func NewHandler(service AuthService, sessionTTL time.Duration) *Handler {
	return &Handler{service: service, sessionTTL: sessionTTL}
}

// LoginForm renders the login page (GET /login).
func (h *Handler) LoginForm(c echo.Context) error {
	// Already signed in -- go home instead of showing the form again.
	if IsAuthenticated(c) {
		return c.Redirect(http.StatusSeeOther, DefaultPath)
	}
	return middleware.Render(c, http.StatusOK, LoginPage("", ""))
}

// Login processes the login form submission (POST /login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	token, _, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			return err
		}
		// Re-render the form with the generic message. The submitted
		// password is never echoed back.
		if middleware.IsHTMX(c) {
			return middleware.Render(c, http.StatusOK, LoginFormComponent(req.Email, apperror.SafeMessage(err)))
		}
		return middleware.Render(c, http.StatusOK, LoginPage(req.Email, apperror.SafeMessage(err)))
	}

	h.setSessionCookie(c, token)

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", DefaultPath)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, DefaultPath)
}

// Logout destroys the session and clears the cookie (POST /logout).
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		// The cookie is cleared regardless of the store's answer.
		_ = h.service.Logout(c.Request().Context(), token)
	}
	clearSessionCookie(c)

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", LoginPath)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, LoginPath)
}

// --- JSON API ---

// loginResponse mirrors the {success, user} shape API clients expect.
type loginResponse struct {
	Success bool       `json:"success"`
	Token   string     `json:"token"`
	User    *Principal `json:"user"`
}

// APILogin authenticates and returns a bearer token (POST /api/v1/auth/login).
func (h *Handler) APILogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	token, p, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Success: true, Token: token, User: p})
}

// APILogout revokes the bearer token (POST /api/v1/auth/logout).
func (h *Handler) APILogout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), getSessionToken(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// APIMe returns the current principal (GET /api/v1/auth/me).
func (h *Handler) APIMe(c echo.Context) error {
	p := GetPrincipal(c)
	if p == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return c.JSON(http.StatusOK, p)
}

// --- Token helpers ---

// getSessionToken reads the session token. Browser routes use the cookie;
// /api routes accept only an Authorization bearer token so that
// cookie-carrying cross-site requests can't reach the CSRF-exempt API.
func getSessionToken(c echo.Context) string {
	if middleware.IsAPI(c) {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}

	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
func (h *Handler) setSessionCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	if middleware.IsAPI(c) {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}


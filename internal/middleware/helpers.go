package middleware

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// LayoutInjector copies layout data (principal, CSRF token, nav) from the
// Echo context into the request context so views can read it. The route
// controller installs it once at startup; this package never imports the
// plugins that own that data.
var LayoutInjector func(echo.Context, context.Context) context.Context

// IsHTMX reports whether the request came from an HTMX swap. Boosted
// navigations expect full pages and are not counted.
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true" &&
		c.Request().Header.Get("HX-Boosted") != "true"
}

// IsAPI reports whether the request targets the JSON surface under /api/.
// Those routes authenticate by bearer token and answer errors in JSON.
func IsAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// Render writes component with the given status after running the
// LayoutInjector, if any.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()
	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(statusCode)
	return component.Render(ctx, c.Response().Writer)
}

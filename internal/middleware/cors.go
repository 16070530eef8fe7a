package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// corsAllowHeaders are the request headers a cross-origin API client may send.
var corsAllowHeaders = strings.Join([]string{
	echo.HeaderContentType,
	echo.HeaderAuthorization,
	echo.HeaderXRequestID,
}, ", ")

// corsExposeHeaders are readable by cross-origin scripts.
var corsExposeHeaders = strings.Join([]string{
	echo.HeaderXRequestID,
	"Retry-After",
}, ", ")

var corsAllowMethods = strings.Join([]string{
	http.MethodGet,
	http.MethodPost,
	http.MethodDelete,
	http.MethodOptions,
}, ", ")

// CORS returns middleware that answers cross-origin requests to the /api
// surface from the listed origins. The browser UI is same-origin and never
// gets CORS headers.
//
// Credentials are never allowed: the API authenticates with a bearer token
// only, so a cross-origin page can't ride on the session cookie.
func CORS(allowedOrigins []string) echo.MiddlewareFunc {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimRight(o, "/")] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" || !IsAPI(c) {
				return next(c)
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			if !origins[origin] {
				// The browser blocks the response for us.
				return next(c)
			}
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)

			if req.Method == http.MethodOptions && req.Header.Get(echo.HeaderAccessControlRequestMethod) != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
				h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
				h.Set(echo.HeaderAccessControlMaxAge, "3600")
				return c.NoContent(http.StatusNoContent)
			}

			h.Set(echo.HeaderAccessControlExposeHeaders, corsExposeHeaders)
			return next(c)
		}
	}
}

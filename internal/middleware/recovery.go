package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// Recovery turns a handler panic into a logged 500. API callers get a JSON
// body, browsers plain text.
func Recovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returnErr error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				slog.Error("panic recovered",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
					slog.String("request_id", GetRequestID(c)),
					slog.String("method", c.Request().Method),
					slog.String("path", c.Request().URL.Path),
				)

				if IsAPI(c) {
					returnErr = c.JSON(http.StatusInternalServerError, map[string]string{
						"error":   "internal_error",
						"message": "an unexpected error occurred",
					})
					return
				}
				returnErr = c.String(http.StatusInternalServerError, "Internal Server Error")
			}()

			return next(c)
		}
	}
}

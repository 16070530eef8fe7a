package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func realIP(t *testing.T, e *echo.Echo, remoteAddr, xff string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set(echo.HeaderXForwardedFor, xff)
	}
	return e.NewContext(req, httptest.NewRecorder()).RealIP()
}

func TestTrustedProxies(t *testing.T) {
	e := echo.New()
	require.NoError(t, TrustedProxies(e, []string{"10.0.0.0/8"}))

	assert.Equal(t, "203.0.113.7", realIP(t, e, "10.0.0.2:4000", "203.0.113.7"),
		"trusted proxy forwards the client address")
	assert.Equal(t, "198.51.100.9", realIP(t, e, "198.51.100.9:4000", "203.0.113.7"),
		"untrusted peer can't spoof X-Forwarded-For")
	assert.Equal(t, "127.0.0.1", realIP(t, e, "127.0.0.1:4000", "203.0.113.7"),
		"loopback is not trusted unless configured")
}

func TestTrustedProxies_InvalidCIDR(t *testing.T) {
	assert.Error(t, TrustedProxies(echo.New(), []string{"not-a-cidr"}))
}

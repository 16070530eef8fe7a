package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// csrfTokenLength is the number of random bytes in a CSRF token (32 bytes = 64 hex chars).
const csrfTokenLength = 32

// csrfCookieName is the name of the cookie that stores the CSRF token.
const csrfCookieName = "crm_csrf"

// csrfHeaderName is the header that HTMX sends the CSRF token in.
const csrfHeaderName = "X-CSRF-Token"

// csrfFormField is the hidden form field name for non-HTMX form submissions.
const csrfFormField = "csrf_token"

// CSRF returns middleware implementing the signed double-submit cookie
// pattern on state-changing requests (POST, PUT, PATCH, DELETE).
//
//  1. If the request has no CSRF cookie, or one whose signature doesn't
//     verify under secret, a fresh token is issued.
//  2. Mutating requests must echo the cookie value in the X-CSRF-Token
//     header (HTMX) or the csrf_token form field (plain forms).
//
// The token is "<nonce>.<hmac(secret, nonce)>", so a cookie planted from a
// sibling subdomain is rejected even when the attacker also submits it.
//
// HTMX sends the header through:
//
//	document.addEventListener('htmx:configRequest', function(evt) {
//	    const token = getCookie('crm_csrf');
//	    if (token) evt.detail.headers['X-CSRF-Token'] = token;
//	});
func CSRF(secret string) echo.MiddlewareFunc {
	key := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// API routes authenticate with bearer tokens only, never the
			// session cookie, so there is nothing for a forged request to ride on.
			if IsAPI(c) {
				return next(c)
			}

			cookieToken := ""
			if cookie, err := req.Cookie(csrfCookieName); err == nil && verifyCSRFToken(key, cookie.Value) {
				cookieToken = cookie.Value
			} else {
				token, genErr := generateCSRFToken(key)
				if genErr != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate CSRF token")
				}
				c.SetCookie(&http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false, // Read by JS for the HTMX header.
					Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
					SameSite: http.SameSiteLaxMode,
				})
				// A freshly issued token can't have been submitted yet, so
				// a mutating request carrying none will fail below.
				cookieToken = token
				if !isSafeMethod(req.Method) {
					c.Set("csrf_token", token)
					return echo.NewHTTPError(http.StatusForbidden, "invalid or missing CSRF token")
				}
			}
			c.Set("csrf_token", cookieToken)

			if isSafeMethod(req.Method) {
				return next(c)
			}

			submittedToken := req.Header.Get(csrfHeaderName)
			if submittedToken == "" {
				submittedToken = req.FormValue(csrfFormField)
			}

			if submittedToken == "" || subtle.ConstantTimeCompare([]byte(submittedToken), []byte(cookieToken)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid or missing CSRF token")
			}

			return next(c)
		}
	}
}

// isSafeMethod returns true for HTTP methods that should not change state.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// generateCSRFToken returns a random nonce with its signature appended.
func generateCSRFToken(key []byte) (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(b)
	return nonce + "." + signCSRFNonce(key, nonce), nil
}

func signCSRFNonce(key []byte, nonce string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyCSRFToken reports whether token was issued under key.
func verifyCSRFToken(key []byte, token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(signCSRFNonce(key, nonce)))
}

// SignedCSRFToken issues a valid token under secret. Tests use it to build
// requests that pass the CSRF check.
func SignedCSRFToken(secret string) string {
	token, err := generateCSRFToken([]byte(secret))
	if err != nil {
		panic(err)
	}
	return token
}

// GetCSRFToken returns the request's CSRF token for rendering into forms.
func GetCSRFToken(c echo.Context) string {
	if token, ok := c.Get("csrf_token").(string); ok {
		return token
	}
	return ""
}

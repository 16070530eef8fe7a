package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret-key-that-is-long-enough!!"

func serveCSRF(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := CSRF(testSecret)(func(c echo.Context) error {
		return c.String(http.StatusOK, GetCSRFToken(c))
	})
	return rec, h(c)
}

func TestCSRF_GetIssuesSignedCookie(t *testing.T) {
	rec, err := serveCSRF(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != csrfCookieName {
		t.Fatalf("expected one %s cookie, got %v", csrfCookieName, cookies)
	}
	if !verifyCSRFToken([]byte(testSecret), cookies[0].Value) {
		t.Error("issued token does not verify")
	}
	if rec.Body.String() != cookies[0].Value {
		t.Error("expected handler to see the issued token")
	}
}

func TestCSRF_PostWithMatchingFieldPasses(t *testing.T) {
	token := SignedCSRFToken(testSecret)
	form := url.Values{csrfFormField: {token}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})

	rec, err := serveCSRF(t, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCSRF_PostWithHeaderPasses(t *testing.T) {
	token := SignedCSRFToken(testSecret)
	req := httptest.NewRequest(http.MethodDelete, "/admin/users/3", nil)
	req.Header.Set(csrfHeaderName, token)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})

	if _, err := serveCSRF(t, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCSRF_Rejects(t *testing.T) {
	valid := SignedCSRFToken(testSecret)
	forged := "deadbeef." + strings.Repeat("0", 64)

	tests := []struct {
		name      string
		cookie    string
		submitted string
	}{
		{"no cookie", "", valid},
		{"missing submission", valid, ""},
		{"mismatch", valid, SignedCSRFToken(testSecret)},
		{"unsigned cookie replayed", forged, forged},
		{"signed under other key", SignedCSRFToken("another-secret"), SignedCSRFToken("another-secret")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/logout", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.submitted != "" {
				req.Header.Set(csrfHeaderName, tt.submitted)
			}

			_, err := serveCSRF(t, req)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %v", err)
			}
		})
	}
}

func TestCSRF_APISkipped(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	if _, err := serveCSRF(t, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventacrm/crm/internal/plugins/auth"
)

var (
	admin    = &auth.Principal{ID: 1, Email: "admin", Name: "Admin User", Role: auth.RoleAdmin, OwnerID: 1}
	vendedor = &auth.Principal{ID: 2, Email: "vendedor1@crm.com", Name: "Juan Vendedor", Role: auth.RoleVendedor, OwnerID: 2}
)

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name string
		p    *auth.Principal
		req  Requirement
		want bool
	}{
		{"vendedor on admin route", vendedor, RequireRole(auth.RoleAdmin), false},
		{"admin on admin route", admin, RequireRole(auth.RoleAdmin), true},
		{"absent on admin route", nil, RequireRole(auth.RoleAdmin), false},
		{"absent on any-auth route", nil, AnyAuthenticated(), false},
		{"vendedor on any-auth route", vendedor, AnyAuthenticated(), true},
		{"admin on vendedor route", admin, RequireRole(auth.RoleVendedor), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.p, tt.req))
		})
	}
}

func TestDecide_DistinctDenials(t *testing.T) {
	assert.Equal(t, DenyUnauthenticated, Decide(nil, RequireRole(auth.RoleAdmin)))
	assert.Equal(t, DenyForbidden, Decide(vendedor, RequireRole(auth.RoleAdmin)))
	assert.Equal(t, Allow, Decide(admin, RequireRole(auth.RoleAdmin)))

	assert.Equal(t, auth.LoginPath, DenyUnauthenticated.RedirectTarget())
	assert.Equal(t, auth.DefaultPath, DenyForbidden.RedirectTarget())
	assert.Empty(t, Allow.RedirectTarget())
}

// serve runs a request through Require(req) with p preloaded on the context.
func serve(t *testing.T, req Requirement, p *auth.Principal, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		r.Header[k] = v
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(r, rec)
	if p != nil {
		auth.SetPrincipal(c, p)
	}

	h := Require(req)(func(c echo.Context) error {
		return c.String(http.StatusOK, "view")
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequire_AnonymousRedirectsToLogin(t *testing.T) {
	rec := serve(t, RequireRole(auth.RoleAdmin), nil, "/admin/users", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestRequire_VendedorOnAdminRouteGoesHomeNotLogin(t *testing.T) {
	rec := serve(t, RequireRole(auth.RoleAdmin), vendedor, "/admin/users", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))
}

func TestRequire_AdminRendersView(t *testing.T) {
	rec := serve(t, RequireRole(auth.RoleAdmin), admin, "/admin/users", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "view", rec.Body.String())
}

func TestRequire_HTMXUsesHeaderRedirect(t *testing.T) {
	rec := serve(t, AnyAuthenticated(), nil, "/leads", http.Header{"Hx-Request": {"true"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
}

func TestRequire_APIReturnsJSONStatus(t *testing.T) {
	rec := serve(t, RequireRole(auth.RoleAdmin), nil, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, RequireRole(auth.RoleAdmin), vendedor, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "deny_forbidden")
}

package workspace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventacrm/crm/internal/plugins/auth"
	"github.com/ventacrm/crm/internal/plugins/gate"
)

func TestViews_DefaultFirstAndUnique(t *testing.T) {
	require.NotEmpty(t, Views)
	assert.Equal(t, auth.DefaultPath, Views[0].Path)

	seen := map[string]bool{}
	for _, v := range Views {
		assert.False(t, seen[v.Path], "duplicate path %s", v.Path)
		seen[v.Path] = true
		assert.Empty(t, v.Requirement.Role, "%s should admit any principal", v.Path)
	}
}

func TestRoutes_VendedorSeesOwnScope(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, NewHandler())

	vendedor := &auth.Principal{ID: 2, Email: "vendedor1@crm.com", Name: "Juan Vendedor", Role: auth.RoleVendedor, OwnerID: 2}
	e.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth.SetPrincipal(c, vendedor)
			return next(c)
		}
	})

	for _, v := range Views {
		req := httptest.NewRequest(http.MethodGet, v.Path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, v.Path)
		assert.Contains(t, rec.Body.String(), `data-owner="2"`, v.Path)
		assert.Contains(t, rec.Body.String(), "Juan Vendedor", v.Path)
	}
}

func TestRoutes_AnonymousRedirected(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, NewHandler())

	req := httptest.NewRequest(http.MethodGet, "/pipeline", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, auth.LoginPath, rec.Header().Get(echo.HeaderLocation))
}

func TestNav_MarksRoleGatedViews(t *testing.T) {
	views := append(append([]View{}, Views...),
		View{Path: "/admin/users", Title: "Usuarios", Requirement: gate.RequireRole(auth.RoleAdmin)})
	items := Nav(views...)
	require.Len(t, items, len(Views)+1)
	assert.False(t, items[0].AdminOnly)
	assert.True(t, items[len(items)-1].AdminOnly)
}

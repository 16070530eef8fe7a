package layouts

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNav = []NavItem{
	{Path: "/dashboard", Title: "Dashboard"},
	{Path: "/admin/users", Title: "Usuarios", AdminOnly: true},
}

func render(t *testing.T, ctx context.Context) string {
	t.Helper()
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>body</p>")
		return err
	})
	var sb strings.Builder
	require.NoError(t, Base("Inicio", body).Render(ctx, &sb))
	return sb.String()
}

func TestVisibleNav(t *testing.T) {
	vendedor := WithData(context.Background(), Data{Nav: testNav, User: &User{Role: "vendedor"}})
	admin := WithData(context.Background(), Data{Nav: testNav, User: &User{Role: "admin", IsAdmin: true}})

	assert.Equal(t, testNav[:1], VisibleNav(vendedor))
	assert.Equal(t, testNav, VisibleNav(admin))
	assert.Empty(t, VisibleNav(context.Background()))
}

func TestBase_AnonymousHasNoSidebar(t *testing.T) {
	out := render(t, WithData(context.Background(), Data{Nav: testNav}))

	assert.Contains(t, out, "<p>body</p>")
	assert.NotContains(t, out, "sidebar")
	assert.False(t, IsAuthenticated(context.Background()))
}

func TestBase_SidebarEscapesAndMarksActive(t *testing.T) {
	ctx := WithData(context.Background(), Data{
		CSRFToken:  "tok",
		ActivePath: "/dashboard",
		Nav:        testNav,
		User:       &User{ID: 2, Name: "<b>Juan</b>", Role: "vendedor"},
	})
	out := render(t, ctx)

	assert.Contains(t, out, `<li class="active"><a href="/dashboard">`)
	assert.NotContains(t, out, "/admin/users")
	assert.Contains(t, out, "&lt;b&gt;Juan&lt;/b&gt;")
	assert.Contains(t, out, `name="csrf_token" value="tok"`)
}

func TestCSRFField_EscapesToken(t *testing.T) {
	ctx := WithData(context.Background(), Data{CSRFToken: `"><script>`})

	var sb strings.Builder
	require.NoError(t, CSRFField().Render(ctx, &sb))

	assert.Equal(t, `<input type="hidden" name="csrf_token" value="&#34;&gt;&lt;script&gt;">`, sb.String())
}

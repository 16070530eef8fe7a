// Package workspace owns the authenticated feature views of the CRM
// (dashboard, leads, pipeline, calendar, collections, messaging). Their
// business content lives elsewhere; this package declares the route table
// and renders each view scoped to the signed-in principal.
package workspace

import (
	"fmt"

	"github.com/ventacrm/crm/internal/plugins/auth"
	"github.com/ventacrm/crm/internal/plugins/gate"
	"github.com/ventacrm/crm/internal/templates/layouts"
)

// View is one entry of the route table.
type View struct {
	Path        string
	Title       string
	Requirement gate.Requirement
}

// Views is the feature route table, in navigation order. The default view
// comes first.
var Views = []View{
	{Path: auth.DefaultPath, Title: "Dashboard", Requirement: gate.AnyAuthenticated()},
	{Path: "/leads", Title: "Leads", Requirement: gate.AnyAuthenticated()},
	{Path: "/pipeline", Title: "Pipeline", Requirement: gate.AnyAuthenticated()},
	{Path: "/calendar", Title: "Calendario", Requirement: gate.AnyAuthenticated()},
	{Path: "/cobranza", Title: "Cobranza", Requirement: gate.AnyAuthenticated()},
	{Path: "/mensajeria", Title: "Mensajería", Requirement: gate.AnyAuthenticated()},
}

// Nav builds sidebar items from the given views. Views that need a role
// are marked admin-only so the layout hides them from everyone else.
func Nav(views ...View) []layouts.NavItem {
	items := make([]layouts.NavItem, 0, len(views))
	for _, v := range views {
		items = append(items, layouts.NavItem{
			Path:      v.Path,
			Title:     v.Title,
			AdminOnly: v.Requirement.Role == auth.RoleAdmin,
		})
	}
	return items
}

// scopeLabel describes which records p's listings cover.
func scopeLabel(p auth.Principal) string {
	if p.IsAdmin() {
		return "todos los registros"
	}
	return fmt.Sprintf("registros del propietario #%d", p.OwnerID)
}

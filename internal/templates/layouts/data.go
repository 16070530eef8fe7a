// Package layouts holds the shared page chrome. Views read per-request
// data (principal, CSRF token, nav) from the context, never from plugins.
package layouts

import "context"

type ctxKey struct{}

// NavItem is one sidebar link. AdminOnly items are hidden from
// non-admin principals.
type NavItem struct {
	Path      string
	Title     string
	AdminOnly bool
}

// User is the slice of the signed-in principal the layout shows. The
// layouts package stays free of plugin imports, so it gets plain values.
type User struct {
	ID      int64
	Name    string
	Email   string
	Role    string
	IsAdmin bool
}

// Data is everything the shared layout reads from the request context.
// It is filled once per render by middleware.LayoutInjector.
type Data struct {
	CSRFToken  string
	ActivePath string
	Nav        []NavItem

	// User is nil for anonymous requests.
	User *User
}

// WithData returns ctx carrying d.
func WithData(ctx context.Context, d Data) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

// FromContext returns the layout data on ctx, or the zero Data.
func FromContext(ctx context.Context) Data {
	d, _ := ctx.Value(ctxKey{}).(Data)
	return d
}

// IsAuthenticated reports whether a principal is rendering the page.
func IsAuthenticated(ctx context.Context) bool {
	return FromContext(ctx).User != nil
}

// VisibleNav returns the sidebar links the current principal may follow.
func VisibleNav(ctx context.Context) []NavItem {
	d := FromContext(ctx)
	admin := d.User != nil && d.User.IsAdmin

	visible := make([]NavItem, 0, len(d.Nav))
	for _, item := range d.Nav {
		if item.AdminOnly && !admin {
			continue
		}
		visible = append(visible, item)
	}
	return visible
}

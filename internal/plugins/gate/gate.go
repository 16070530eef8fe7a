// Package gate decides whether a principal may reach a view. Decisions
// are pure functions of the principal and the view's requirement; the gate
// only reads the session, it never changes it.
package gate

import (
	"github.com/ventacrm/crm/internal/plugins/auth"
)

// Requirement describes who may reach a view. The zero value requires any
// authenticated principal.
type Requirement struct {
	// Role, when non-empty, must equal the principal's role exactly.
	Role auth.Role
}

// AnyAuthenticated admits every signed-in principal.
func AnyAuthenticated() Requirement {
	return Requirement{}
}

// RequireRole admits only principals holding role.
func RequireRole(role auth.Role) Requirement {
	return Requirement{Role: role}
}

// String is used in logs.
func (r Requirement) String() string {
	if r.Role == "" {
		return "authenticated"
	}
	return "role:" + string(r.Role)
}

// CanAccess reports whether p satisfies req. An absent principal never
// does.
func CanAccess(p *auth.Principal, req Requirement) bool {
	if p == nil {
		return false
	}
	if req.Role == "" {
		return true
	}
	return p.Role == req.Role
}

// Decision is the outcome of evaluating a requirement.
type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota

	// DenyUnauthenticated sends the visitor to the login view.
	DenyUnauthenticated

	// DenyForbidden sends a signed-in but under-privileged principal to the
	// default view. It must never send them to login.
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

// Decide evaluates req for p.
func Decide(p *auth.Principal, req Requirement) Decision {
	switch {
	case p == nil:
		return DenyUnauthenticated
	case CanAccess(p, req):
		return Allow
	default:
		return DenyForbidden
	}
}

// RedirectTarget returns where a denied navigation goes, or "" for Allow.
func (d Decision) RedirectTarget() string {
	switch d {
	case DenyUnauthenticated:
		return auth.LoginPath
	case DenyForbidden:
		return auth.DefaultPath
	default:
		return ""
	}
}

package admin

import "github.com/ventacrm/crm/internal/plugins/auth"

// UsersPageData carries everything the users page renders.
type UsersPageData struct {
	Users     []auth.Principal
	CurrentID int64
	Error     string
	Notice    string

	// Echoed back into the create form after a failed submit. The password
	// never is.
	FormName  string
	FormEmail string
}

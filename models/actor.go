package models

// Role is the role an authenticated caller acts under, as supplied by the
// identity provider.
type Role string

const (
	RoleRequester Role = "requester"
	RoleProvider  Role = "provider"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation. The core trusts it as is.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

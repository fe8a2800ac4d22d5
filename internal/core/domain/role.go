package domain

// Role labels a user for authorization decisions.
type Role string

const (
	RoleUser         Role = "user"
	RolePhotographer Role = "photographer"
	RoleVideographer Role = "videographer"
	RoleMusician     Role = "musician"
	RoleArtist       Role = "artist"
	RoleAdmin        Role = "admin"
)

// DefaultRole is assigned when an account is created without one.
const DefaultRole = RoleUser

var allRoles = []Role{RoleUser, RolePhotographer, RoleVideographer, RoleMusician, RoleArtist, RoleAdmin}

// Roles returns every known role in declaration order.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// RoleNames returns the role enumeration as plain strings, for schema enums.
func RoleNames() []string {
	out := make([]string, len(allRoles))
	for i, r := range allRoles {
		out[i] = string(r)
	}
	return out
}

func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

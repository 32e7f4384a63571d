package invite

import (
	"fmt"
	"strings"
)

// Role is the workspace role an invited user receives.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"
)

// DefaultRole is applied to entries when nothing else was selected.
const DefaultRole = RoleMember

// Roles lists every assignable role in display order.
var Roles = []Role{RoleAdmin, RoleMember, RoleGuest}

var roleLabels = map[Role]string{
	RoleAdmin:  "Admin",
	RoleMember: "Member",
	RoleGuest:  "Guest",
}

var roleDescriptions = map[Role]string{
	RoleAdmin:  "Can manage team members, billing, and all workspace settings.",
	RoleMember: "Can create and edit content, but cannot modify team settings.",
	RoleGuest:  "Can only view content they are explicitly given access to.",
}

// ParseRole converts user input into a Role. Matching ignores case and
// surrounding whitespace.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the display name of the role.
func (r Role) Label() string {
	return roleLabels[r]
}

// Description returns the one-line permission summary shown next to the role.
func (r Role) Description() string {
	return roleDescriptions[r]
}

func (r Role) String() string { return string(r) }

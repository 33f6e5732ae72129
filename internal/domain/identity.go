package domain

import "time"

// Role names a permission group carried in token claims.
type Role string

const (
	RoleAttendee  Role = "Attendee"
	RoleOrganizer Role = "Organizer"
	RoleAdmin     Role = "Admin"
)

// Valid reports whether the role is one the service knows about.
func (r Role) Valid() bool {
	switch r {
	case RoleAttendee, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Identity is a registered principal. Identities are never deleted, only deactivated.
type Identity struct {
	ID           string
	Subject      string
	Roles        []Role
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleStrings returns the roles as plain strings for storage.
func (i *Identity) RoleStrings() []string {
	out := make([]string, 0, len(i.Roles))
	for _, r := range i.Roles {
		out = append(out, string(r))
	}
	return out
}

// RolesFromStrings converts stored role names.
func RolesFromStrings(values []string) []Role {
	out := make([]Role, 0, len(values))
	for _, v := range values {
		out = append(out, Role(v))
	}
	return out
}

package models

import "strings"

// Role is the closed set of account roles. The upper-case form is the only
// representation that crosses the wire or reaches the database.
type Role string

const (
	// RoleUser is the regular role given to every self-registered account.
	RoleUser Role = "USER"
	// RoleAdmin grants moderation and user management.
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts s into a Role, ignoring case and surrounding space.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", Invalid("role must be USER or ADMIN")
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

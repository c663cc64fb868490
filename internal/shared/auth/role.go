package auth

import (
	"errors"
	"strings"
)

// Role is the permission level carried by a verified identity.
type Role string

const (
	RoleUser      Role = "user"
	RoleSupport   Role = "support"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

// Identity is the verified caller attached to each request.
type Identity struct {
	Subject string
	Email   string
	Role    Role
}

// ParseRole maps a raw string to a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleSupport:
		return RoleSupport, nil
	case RoleModerator:
		return RoleModerator, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

// RoleAllowed reports whether role is a member of allowed.
func RoleAllowed(role Role, allowed ...Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// Route role sets.
var (
	WriterRoles = []Role{RoleUser, RoleAdmin}
	ReaderRoles = []Role{RoleUser, RoleAdmin, RoleSupport, RoleModerator}
	AdminRoles  = []Role{RoleAdmin}
)

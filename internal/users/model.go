package users

import (
	"errors"
	"time"

	"docflow-backend/internal/shared/auth"
)

// User is a known account. The role stored here is what admins change;
// callers still authenticate with the role in their token.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound       = errors.New("user not found")
	ErrInvalidInput   = errors.New("user id is required")
	ErrInvalidRole    = errors.New("invalid role")
	ErrSelfRoleChange = errors.New("admins cannot change their own role")

	ErrInvalidSignup      = errors.New("a valid email and a password of at least 8 characters are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// MinPasswordLen is the shortest password signup accepts.
const MinPasswordLen = 8

// AssignableRoles are the roles an admin may grant.
var AssignableRoles = []auth.Role{auth.RoleUser, auth.RoleSupport, auth.RoleAdmin}

package auth

import "testing"

func TestRoleAllowed(t *testing.T) {
	tests := []struct {
		role    Role
		allowed []Role
		want    bool
	}{
		{RoleUser, WriterRoles, true},
		{RoleSupport, WriterRoles, false},
		{RoleSupport, ReaderRoles, true},
		{RoleModerator, AdminRoles, false},
		{RoleAdmin, AdminRoles, true},
		{RoleAdmin, nil, false},
	}
	for _, tt := range tests {
		if got := RoleAllowed(tt.role, tt.allowed...); got != tt.want {
			t.Fatalf("RoleAllowed(%s, %v) = %v, want %v", tt.role, tt.allowed, got, tt.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" Admin "); err != nil || r != RoleAdmin {
		t.Fatalf("expected admin, got %q %v", r, err)
	}
	if _, err := ParseRole("owner"); err != ErrUnknownRole {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

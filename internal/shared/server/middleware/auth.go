package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
)

// TokenVerifier turns a bearer token into a verified identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Auth validates bearer JWTs and stores identity in context.
// Paths in public pass through without identity.
func Auth(verifier TokenVerifier, public ...string) gin.HandlerFunc {
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if _, ok := open[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		id, err := verifier.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, id.Subject)
		if id.Email != "" {
			c.Set(userEmailKey, id.Email)
		}
		c.Set(userRoleKey, string(id.Role))
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in allowed.
func RequireRole(allowed ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleFromContext(c)
		if !auth.RoleAllowed(role, allowed...) {
			respond.Error(c, http.StatusForbidden, "forbidden", fmt.Sprintf("Access denied for role '%s'", role), nil)
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the identity set by Auth.
func IdentityFromContext(c *gin.Context) auth.Identity {
	return auth.Identity{
		Subject: UserIDFromContext(c),
		Email:   UserEmailFromContext(c),
		Role:    RoleFromContext(c),
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userEmailKey)
}

// RoleFromContext fetches the role set by the auth middleware.
func RoleFromContext(c *gin.Context) auth.Role {
	if c == nil {
		return ""
	}
	return auth.Role(c.GetString(userRoleKey))
}

package users

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/server/middleware"
	"docflow-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRoutes attaches /me and /auth to rg and the admin routes to admin.
// /auth/signup and /auth/login must be listed as public paths.
func (h *Handler) RegisterRoutes(rg, admin *gin.RouterGroup) {
	rg.GET("/me", middleware.RequireRole(auth.ReaderRoles...), h.me)

	authGroup := rg.Group("/auth")
	authGroup.POST("/signup", h.signup)
	authGroup.POST("/login", h.login)
	authGroup.GET("/me", h.claims)

	admin.Use(middleware.RequireRole(auth.AdminRoles...))
	admin.GET("/users", h.list)
	admin.POST("/users/:id/role", h.changeRole)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.EnsureFromIdentity(c.Request.Context(), middleware.IdentityFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	// The token role is what authorizes this request.
	user.Role = middleware.RoleFromContext(c)
	respond.OK(c, user)
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, err := h.Svc.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignup):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrEmailTaken):
			respond.Error(c, http.StatusBadRequest, "email_taken", "Email already registered", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign up", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"message": "Signup successful", "user_id": user.ID})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	token, _, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid credentials", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to log in", nil)
		return
	}
	respond.OK(c, gin.H{"access_token": token, "token_type": "bearer"})
}

// claims echoes the verified token identity.
func (h *Handler) claims(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	respond.OK(c, gin.H{"sub": id.Subject, "email": id.Email, "role": id.Role})
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list users", nil)
		return
	}
	respond.OK(c, list)
}

func (h *Handler) changeRole(c *gin.Context) {
	role := c.Query("role")
	if role == "" {
		role = c.Query("new_role")
	}

	user, err := h.Svc.ChangeRole(c.Request.Context(), middleware.IdentityFromContext(c), c.Param("id"), role)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			respond.Error(c, http.StatusBadRequest, "invalid_role", fmt.Sprintf("Invalid role: %s", role), nil)
		case errors.Is(err, ErrSelfRoleChange):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Admins cannot change their own role", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "User not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to change role", nil)
		}
		return
	}
	respond.OK(c, gin.H{"message": fmt.Sprintf("User %s role updated to %s", user.Email, user.Role)})
}

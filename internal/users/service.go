package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"docflow-backend/internal/audit"
	"docflow-backend/internal/shared/auth"
)

// Auditor appends audit entries.
type Auditor interface {
	Record(ctx context.Context, userID, action, entityType, entityID string, metadata map[string]any) error
}

// TokenIssuer signs access tokens for logged-in users.
type TokenIssuer interface {
	Sign(id auth.Identity) (string, error)
}

type Service struct {
	Repo   Repo
	Audit  Auditor
	Tokens TokenIssuer
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

func NewService(repo Repo, auditor Auditor) *Service {
	return &Service{Repo: repo, Audit: auditor}
}

// Signup creates a login account with the default user role.
func (s *Service) Signup(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) || len(password) < MinPasswordLen {
		return User{}, ErrInvalidSignup
	}
	cost := s.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user := User{ID: uuid.NewString(), Email: email, Role: auth.RoleUser}
	if err := s.Repo.CreateWithPassword(ctx, user, string(hash)); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, user.ID)
}

// Login checks the password and returns a signed token carrying the
// stored role, so admin role changes apply from the next login.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	if s.Tokens == nil {
		return "", User{}, errors.New("token issuer not configured")
	}
	user, hash, err := s.Repo.GetCredentials(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", User{}, ErrInvalidCredentials
		}
		return "", User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", User{}, ErrInvalidCredentials
	}
	token, err := s.Tokens.Sign(auth.Identity{Subject: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return "", User{}, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// EnsureFromIdentity records the caller so admins can find them later.
func (s *Service) EnsureFromIdentity(ctx context.Context, id auth.Identity) (User, error) {
	if strings.TrimSpace(id.Subject) == "" {
		return User{}, ErrInvalidInput
	}
	if err := s.Repo.Upsert(ctx, User{ID: id.Subject, Email: id.Email, Role: id.Role}); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, id.Subject)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.Repo.List(ctx)
}

// ChangeRole sets userID's role on behalf of admin.
func (s *Service) ChangeRole(ctx context.Context, admin auth.Identity, userID, rawRole string) (User, error) {
	role, err := auth.ParseRole(rawRole)
	if err != nil || !auth.RoleAllowed(role, AssignableRoles...) {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidRole, rawRole)
	}
	if admin.Subject == userID {
		return User{}, ErrSelfRoleChange
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if err := s.Repo.UpdateRole(ctx, userID, role); err != nil {
		return User{}, err
	}
	user.Role = role

	if err := s.Audit.Record(ctx, admin.Subject, audit.ActionChangeUserRole, "user", userID, map[string]any{
		"performedBy": admin.Subject,
		"targetUser":  userID,
		"newRole":     string(role),
	}); err != nil {
		return User{}, fmt.Errorf("audit role change: %w", err)
	}
	return user, nil
}

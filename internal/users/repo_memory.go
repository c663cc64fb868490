package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"docflow-backend/internal/shared/auth"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	users  map[string]User
	hashes map[string]string
	logins map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:  make(map[string]User),
		hashes: make(map[string]string),
		logins: make(map[string]string),
	}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.users[user.ID]; ok {
		existing.Email = user.Email
		existing.UpdatedAt = now
		r.users[user.ID] = existing
		return nil
	}
	if user.Role == "" {
		user.Role = auth.RoleUser
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) UpdateRole(ctx context.Context, userID string, role auth.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

func (r *MemoryRepo) CreateWithPassword(ctx context.Context, user User, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, ok := r.logins[key]; ok {
		return ErrEmailTaken
	}
	if user.Role == "" {
		user.Role = auth.RoleUser
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	r.hashes[user.ID] = passwordHash
	r.logins[key] = user.ID
	return nil
}

func (r *MemoryRepo) GetCredentials(ctx context.Context, email string) (User, string, error) {
	if err := ctx.Err(); err != nil {
		return User{}, "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.logins[strings.ToLower(email)]
	if !ok {
		return User{}, "", ErrNotFound
	}
	return r.users[id], r.hashes[id], nil
}

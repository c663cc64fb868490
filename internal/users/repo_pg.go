package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/metrics"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, role, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  updated_at = now()`
	role := user.Role
	if role == "" {
		role = auth.RoleUser
	}
	start := time.Now()
	_, err := r.DB.ExecContext(ctx, query, user.ID, user.Email, string(role))
	metrics.ObserveDBQuery(start)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, role, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1`
	var user User
	var role string
	start := time.Now()
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.Email, &role, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveDBQuery(start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Role = auth.Role(role)
	return user, nil
}

func (r *PGRepo) List(ctx context.Context) ([]User, error) {
	const query = `SELECT id, email, role, created_at, updated_at FROM users ORDER BY created_at, id`
	start := time.Now()
	rows, err := r.DB.QueryContext(ctx, query)
	metrics.ObserveDBQuery(start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var user User
		var role string
		if err := rows.Scan(&user.ID, &user.Email, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		user.Role = auth.Role(role)
		out = append(out, user)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateRole(ctx context.Context, userID string, role auth.Role) error {
	const query = `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`
	start := time.Now()
	res, err := r.DB.ExecContext(ctx, query, userID, string(role))
	metrics.ObserveDBQuery(start)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const pgUniqueViolation = "23505"

func (r *PGRepo) CreateWithPassword(ctx context.Context, user User, passwordHash string) error {
	const query = `
INSERT INTO users (id, email, role, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())`
	role := user.Role
	if role == "" {
		role = auth.RoleUser
	}
	start := time.Now()
	_, err := r.DB.ExecContext(ctx, query, user.ID, user.Email, string(role), passwordHash)
	metrics.ObserveDBQuery(start)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func (r *PGRepo) GetCredentials(ctx context.Context, email string) (User, string, error) {
	const query = `
SELECT id, email, role, password_hash, created_at, updated_at
FROM users
WHERE lower(email) = lower($1) AND password_hash <> ''
LIMIT 1`
	var (
		user User
		role string
		hash string
	)
	start := time.Now()
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &role, &hash, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveDBQuery(start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, "", ErrNotFound
		}
		return User{}, "", err
	}
	user.Role = auth.Role(role)
	return user, hash, nil
}

package store

import (
	"context"
	"strings"
)

const getUserByEmail = `
SELECT id, email, full_name, password_hash, role, is_active, created_at
FROM users
WHERE lower(email) = lower($1)
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByEmail, strings.TrimSpace(email)).Scan(
		&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt,
	)
	return u, err
}

const upsertUser = `
INSERT INTO users (email, full_name, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT ((lower(email))) DO UPDATE
SET full_name = EXCLUDED.full_name,
    password_hash = EXCLUDED.password_hash,
    role = EXCLUDED.role
RETURNING id, email, full_name, password_hash, role, is_active, created_at
`

type UpsertUserParams struct {
	Email        string
	FullName     string
	PasswordHash string
	Role         string
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, upsertUser, arg.Email, arg.FullName, arg.PasswordHash, arg.Role).Scan(
		&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt,
	)
	return u, err
}

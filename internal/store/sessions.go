package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const createSession = `
INSERT INTO sessions (id, user_id, token_hash, csrf_token, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, csrf_token, created_at, expires_at
`

type CreateSessionParams struct {
	UserID    int64
	TokenHash string
	CsrfToken string
	ExpiresAt time.Time
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	var s Session
	err := q.db.QueryRow(ctx, createSession, uuid.New(), arg.UserID, arg.TokenHash, arg.CsrfToken, arg.ExpiresAt).Scan(
		&s.ID, &s.UserID, &s.CsrfToken, &s.CreatedAt, &s.ExpiresAt,
	)
	return s, err
}

const getSessionPrincipalByTokenHash = `
SELECT s.id, u.id, u.email, u.full_name, u.role, s.csrf_token, s.expires_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.token_hash = $1
  AND s.revoked_at IS NULL
  AND s.expires_at > now()
  AND u.is_active
`

func (q *Queries) GetSessionPrincipalByTokenHash(ctx context.Context, tokenHash string) (SessionPrincipal, error) {
	var p SessionPrincipal
	err := q.db.QueryRow(ctx, getSessionPrincipalByTokenHash, tokenHash).Scan(
		&p.SessionID, &p.UserID, &p.Email, &p.FullName, &p.Role, &p.CsrfToken, &p.ExpiresAt,
	)
	return p, err
}

const touchSession = `UPDATE sessions SET last_seen_at = now() WHERE id = $1`

func (q *Queries) TouchSession(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, touchSession, id)
	return err
}

const revokeSessionByID = `
UPDATE sessions SET revoked_at = now()
WHERE id = $1 AND revoked_at IS NULL
`

func (q *Queries) RevokeSessionByID(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, revokeSessionByID, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const revokeSessionByTokenHash = `
UPDATE sessions SET revoked_at = now()
WHERE token_hash = $1 AND revoked_at IS NULL
`

func (q *Queries) RevokeSessionByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	tag, err := q.db.Exec(ctx, revokeSessionByTokenHash, tokenHash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteStaleSessions = `
DELETE FROM sessions
WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)
`

// DeleteStaleSessions removes sessions that expired or were revoked before cutoff.
func (q *Queries) DeleteStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteStaleSessions, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

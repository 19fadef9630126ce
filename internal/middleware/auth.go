package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ledgerdesk/api/internal/auth"
	"github.com/ledgerdesk/api/internal/store"
)

type SessionStore interface {
	GetSessionPrincipalByTokenHash(ctx context.Context, tokenHash string) (store.SessionPrincipal, error)
	TouchSession(ctx context.Context, id uuid.UUID) error
}

type AuthMiddleware struct {
	Sessions   SessionStore
	CookieName string
	Logger     *slog.Logger
}

// RequireAuth resolves the session cookie to an Actor. Every failure to
// authenticate yields 401 {"error": "Unauthorized"}.
func (m AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.CookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "", "Unauthorized")
			return
		}

		principal, err := m.Sessions.GetSessionPrincipalByTokenHash(r.Context(), auth.HashToken(cookie.Value))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusUnauthorized, "", "Unauthorized")
				return
			}
			if m.Logger != nil {
				m.Logger.Error("session_lookup_failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
			}
			writeError(w, http.StatusInternalServerError, "", "Failed to load session")
			return
		}

		_ = m.Sessions.TouchSession(r.Context(), principal.SessionID)

		ctx := WithActor(r.Context(), Actor{
			SessionID: principal.SessionID.String(),
			UserID:    principal.UserID,
			Email:     principal.Email,
			FullName:  principal.FullName,
			Role:      principal.Role,
			CSRFToken: principal.CsrfToken,
			ExpiresAt: principal.ExpiresAt,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/ledgerdesk/api/internal/archive"
	"github.com/ledgerdesk/api/internal/audit"
	"github.com/ledgerdesk/api/internal/auth"
	"github.com/ledgerdesk/api/internal/config"
	"github.com/ledgerdesk/api/internal/httpx"
	"github.com/ledgerdesk/api/internal/middleware"
	"github.com/ledgerdesk/api/internal/store"
	"github.com/ledgerdesk/api/internal/txnimport"
)

// Store is the slice of store.Queries the handlers depend on.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateSession(ctx context.Context, arg store.CreateSessionParams) (store.Session, error)
	RevokeSessionByID(ctx context.Context, id uuid.UUID) (int64, error)
	RevokeSessionByTokenHash(ctx context.Context, tokenHash string) (int64, error)

	GetCompanyForUser(ctx context.Context, companyID, userID int64) (store.Company, error)

	CreateImportRun(ctx context.Context, arg store.CreateImportRunParams) (store.ImportRun, error)
	SetImportRunArchiveURI(ctx context.Context, id uuid.UUID, uri string) error
	CompleteImportRun(ctx context.Context, arg store.CompleteImportRunParams) (store.ImportRun, error)
	GetImportRunForUser(ctx context.Context, id uuid.UUID, userID int64) (store.ImportRun, error)

	InsertTransaction(ctx context.Context, importRunID *uuid.UUID, row txnimport.RawTransactionRow) error
	ListTransactions(ctx context.Context, arg store.ListTransactionsParams) ([]store.Transaction, error)
}

type Server struct {
	Config   config.Config
	Store    Store
	Audit    *audit.Logger
	Logger   *slog.Logger
	Importer *txnimport.Importer
	Archiver archive.Archiver
}

func NewServer(cfg config.Config, st Store, auditLogger *audit.Logger, logger *slog.Logger, importer *txnimport.Importer, archiver archive.Archiver) *Server {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	return &Server{
		Config:   cfg,
		Store:    st,
		Audit:    auditLogger,
		Logger:   logger,
		Importer: importer,
		Archiver: archiver,
	}
}

type loginRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

type userResponse struct {
	ID       int64               `json:"id"`
	Email    openapi_types.Email `json:"email"`
	FullName string              `json:"fullName"`
	Role     string              `json:"role"`
}

type sessionResponse struct {
	User userResponse `json:"user"`
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) PostAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Malformed JSON body", nil)
		return
	}

	user, err := s.Store.GetUserByEmail(r.Context(), string(req.Email))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load user", nil)
		return
	}

	matched := false
	if err == nil && user.IsActive {
		ok, verifyErr := auth.VerifyPassword(req.Password, user.PasswordHash)
		if verifyErr != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "Password verification failed", nil)
			return
		}
		matched = ok
	}
	if !matched {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	if old, err := r.Cookie(s.Config.SessionCookieName); err == nil && old.Value != "" {
		_, _ = s.Store.RevokeSessionByTokenHash(r.Context(), auth.HashToken(old.Value))
	}

	sessionToken, err := auth.GenerateToken()
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to create session", nil)
		return
	}
	csrfToken, err := auth.GenerateToken()
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to create CSRF token", nil)
		return
	}

	expiresAt := time.Now().Add(s.Config.SessionTTL)
	session, err := s.Store.CreateSession(r.Context(), store.CreateSessionParams{
		UserID:    user.ID,
		TokenHash: auth.HashToken(sessionToken),
		CsrfToken: csrfToken,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to save session", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.Config.SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Config.SecureCookies,
		Expires:  expiresAt,
	})

	userID := user.ID
	s.logAudit(r, audit.Entry{
		UserID:     &userID,
		Action:     "auth.login",
		EntityType: "session",
		EntityID:   session.ID.String(),
	})

	httpx.WriteJSON(w, http.StatusOK, sessionResponse{User: userResponse{
		ID:       user.ID,
		Email:    openapi_types.Email(user.Email),
		FullName: user.FullName,
		Role:     user.Role,
	}})
}

func (s *Server) PostAuthLogout(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	sessionID, err := uuid.Parse(actor.SessionID)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	if _, err := s.Store.RevokeSessionByID(r.Context(), sessionID); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to revoke session", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.Config.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Config.SecureCookies,
		MaxAge:   -1,
	})

	userID := actor.UserID
	s.logAudit(r, audit.Entry{
		UserID:     &userID,
		Action:     "auth.logout",
		EntityType: "session",
		EntityID:   actor.SessionID,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetAuthMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionResponse{User: userResponse{
		ID:       actor.UserID,
		Email:    openapi_types.Email(actor.Email),
		FullName: actor.FullName,
		Role:     actor.Role,
	}})
}

func (s *Server) GetAuthCsrf(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"csrfToken": actor.CSRFToken})
}

// logAudit records entry with the request ID attached. Audit failures never
// change the response.
func (s *Server) logAudit(r *http.Request, entry audit.Entry) {
	if s.Audit == nil {
		return
	}
	entry.RequestID = middleware.RequestIDFromContext(r.Context())
	if err := s.Audit.Log(r.Context(), entry); err != nil {
		s.Logger.Warn("audit_log_failed",
			"action", entry.Action,
			"error", err,
			"request_id", entry.RequestID,
		)
	}
}

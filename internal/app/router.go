package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/ledgerdesk/api/api"
	"github.com/ledgerdesk/api/internal/archive"
	"github.com/ledgerdesk/api/internal/audit"
	"github.com/ledgerdesk/api/internal/config"
	"github.com/ledgerdesk/api/internal/handlers"
	"github.com/ledgerdesk/api/internal/httpx"
	"github.com/ledgerdesk/api/internal/middleware"
	"github.com/ledgerdesk/api/internal/txnimport"
)

// Store is everything the HTTP layer needs from persistence. *store.Queries
// satisfies it.
type Store interface {
	handlers.Store
	middleware.SessionStore
	audit.Inserter
}

type Deps struct {
	Config   config.Config
	Store    Store
	Logger   *slog.Logger
	Importer *txnimport.Importer
	Archiver archive.Archiver
}

func NewRouter(ctx context.Context, deps Deps) (http.Handler, error) {
	doc, err := api.Load(ctx)
	if err != nil {
		return nil, err
	}

	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	importer := deps.Importer
	if importer == nil {
		importer = txnimport.NewImporter(txnimport.DefaultAliases(), cfg.ImportMaxRows, logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.LimitBodyBytes(cfg.APIMaxBodyBytes, middleware.BodyLimitRule{
		Method:   http.MethodPost,
		Path:     "/transactions/import",
		MaxBytes: cfg.ImportMaxFileBytes,
	}))

	validator := openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		SilenceServersWarning: true,
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			httpx.WriteError(w, statusCode, message, nil)
		},
	})

	auditLogger := audit.NewLogger(deps.Store)
	h := handlers.NewServer(cfg, deps.Store, auditLogger, logger, importer, deps.Archiver)

	authMW := middleware.AuthMiddleware{Sessions: deps.Store, CookieName: cfg.SessionCookieName, Logger: logger}
	loginLimiter := middleware.NewLoginRateLimiter(10, time.Minute, cfg.RateLimitMaxIPs)
	importLimiter := middleware.NewIPRateLimiterWithMaxEntries(30, time.Minute, cfg.RateLimitMaxIPs)
	csrf := middleware.EnforceCSRF(cfg.CSRFEnforce)

	apiRouter := chi.NewRouter()

	apiRouter.Group(func(validated chi.Router) {
		validated.Use(validator)

		validated.Group(func(public chi.Router) {
			public.With(loginLimiter.Middleware).Post("/auth/login", h.PostAuthLogin)
			public.Get("/health", h.GetHealth)
		})

		validated.Group(func(protected chi.Router) {
			protected.Use(authMW.RequireAuth)
			protected.Get("/auth/me", h.GetAuthMe)
			protected.Get("/auth/csrf", h.GetAuthCsrf)
			protected.With(csrf).Post("/auth/logout", h.PostAuthLogout)

			protected.With(middleware.RequirePermission(middleware.PermTransactionsImport)).
				Get("/transactions/import/template.csv", h.GetTransactionsImportTemplate)
			protected.With(middleware.RequirePermission(middleware.PermTransactionsImport)).
				Get("/imports/{importRunId}", h.GetImportRun)
			protected.With(middleware.RequirePermission(middleware.PermTransactionsRead)).
				Get("/companies/{companyId}/transactions", h.GetCompanyTransactions)
			protected.With(middleware.RequirePermission(middleware.PermTransactionsExport)).
				Get("/companies/{companyId}/transactions/export.csv", h.GetCompanyTransactionsExport)
		})
	})

	// Multipart uploads bypass the request validator: it buffers the body
	// before the import handler can report size and missing-file errors.
	apiRouter.Group(func(upload chi.Router) {
		upload.Use(authMW.RequireAuth)
		upload.Use(importLimiter.Middleware("Too many import requests"))
		upload.Use(csrf)
		upload.Use(middleware.RequirePermission(middleware.PermTransactionsImport))
		upload.Post("/transactions/import", h.PostTransactionsImport)
	})

	r.Mount("/api", apiRouter)
	return r, nil
}

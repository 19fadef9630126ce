package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerdesk/api/internal/app"
	"github.com/ledgerdesk/api/internal/config"
	"github.com/ledgerdesk/api/internal/db"
	"github.com/ledgerdesk/api/internal/jobs"
	"github.com/ledgerdesk/api/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	importer, err := app.NewImporter(cfg, logger)
	if err != nil {
		logger.Error("build importer", "error", err)
		os.Exit(1)
	}

	archiver, closeArchiver, err := app.NewArchiver(ctx, cfg)
	if err != nil {
		logger.Error("build archiver", "error", err, "bucket", cfg.ImportArchiveBucket)
		os.Exit(1)
	}
	defer closeArchiver()

	queries := store.New(pool)
	router, err := app.NewRouter(ctx, app.Deps{
		Config:   cfg,
		Store:    queries,
		Logger:   logger,
		Importer: importer,
		Archiver: archiver,
	})
	if err != nil {
		logger.Error("build router", "error", err)
		os.Exit(1)
	}

	scheduler, err := jobs.StartScheduler(cfg.SessionCleanupSchedule, &jobs.SessionCleanup{
		Sessions: queries,
		Logger:   logger,
	}, logger)
	if err != nil {
		logger.Error("start scheduler", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		logger.Info("api_started", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	<-scheduler.Stop().Done()
}

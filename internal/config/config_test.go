package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"IMPORT_MAX_FILE_MB", "IMPORT_MAX_ROWS", "SESSION_CLEANUP_SCHEDULE", "APP_ENV", "COOKIE_SECURE", "IMPORT_ARCHIVE_BUCKET"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	if cfg.ImportMaxFileBytes != 10*1024*1024 {
		t.Fatalf("expected 10MB import cap, got %d", cfg.ImportMaxFileBytes)
	}
	if cfg.ImportMaxRows != 10000 {
		t.Fatalf("expected 10000 rows, got %d", cfg.ImportMaxRows)
	}
	if cfg.SessionCleanupSchedule != "@hourly" {
		t.Fatalf("unexpected schedule %q", cfg.SessionCleanupSchedule)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("unexpected session ttl %s", cfg.SessionTTL)
	}
	if cfg.SecureCookies {
		t.Fatal("expected insecure cookies outside prod")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("IMPORT_MAX_FILE_MB", "3")
	t.Setenv("IMPORT_MAX_ROWS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("IMPORT_ARCHIVE_BUCKET", " ledger-uploads ")

	cfg := FromEnv()
	if cfg.ImportMaxFileBytes != 3*1024*1024 {
		t.Fatalf("expected 3MB, got %d", cfg.ImportMaxFileBytes)
	}
	if cfg.ImportMaxRows != 10000 {
		t.Fatalf("expected fallback for bad int, got %d", cfg.ImportMaxRows)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.SecureCookies {
		t.Fatal("expected prod to force secure cookies")
	}
	if cfg.ImportArchiveBucket != "ledger-uploads" {
		t.Fatalf("unexpected bucket %q", cfg.ImportArchiveBucket)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected missing DATABASE_URL to fail")
	}
}

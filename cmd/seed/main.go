package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ledgerdesk/api/internal/auth"
	"github.com/ledgerdesk/api/internal/db"
	"github.com/ledgerdesk/api/internal/store"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	email := envOrDefault("SEED_OWNER_EMAIL", "owner@ledgerdesk.local")
	password := envOrDefault("SEED_OWNER_PASSWORD", "Owner12345!")
	fullName := envOrDefault("SEED_OWNER_NAME", "Local Owner")
	companyName := envOrDefault("SEED_COMPANY_NAME", "Local Dev Company")
	baseCurrency := envOrDefault("SEED_COMPANY_CURRENCY", "USD")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	q := store.New(pool).WithTx(tx)
	user, err := q.UpsertUser(ctx, store.UpsertUserParams{
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         store.RoleOwner,
	})
	if err != nil {
		log.Fatalf("upsert user: %v", err)
	}

	company, err := q.UpsertCompany(ctx, store.UpsertCompanyParams{
		OwnerUserID:  user.ID,
		Name:         companyName,
		BaseCurrency: baseCurrency,
	})
	if err != nil {
		log.Fatalf("upsert company: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}

	log.Printf("seeded owner %s (id %d) with company %q (id %d)", user.Email, user.ID, company.Name, company.ID)
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleOwner      = "owner"
	RoleAccountant = "accountant"
	RoleViewer     = "viewer"
)

const (
	ImportStatusPending          = "pending"
	ImportStatusValidationFailed = "validation_failed"
	ImportStatusCompleted        = "completed"
	ImportStatusRejected         = "rejected"
)

type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

type Session struct {
	ID        uuid.UUID
	UserID    int64
	CsrfToken string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type SessionPrincipal struct {
	SessionID uuid.UUID
	UserID    int64
	Email     string
	FullName  string
	Role      string
	CsrfToken string
	ExpiresAt time.Time
}

type Company struct {
	ID           int64
	OwnerUserID  int64
	Name         string
	BaseCurrency string
	CreatedAt    time.Time
}

type Transaction struct {
	ID                   int64
	CompanyID            int64
	ImportRunID          *uuid.UUID
	TransactionDate      time.Time
	PaidBy               string
	PaidTo               string
	NetAmount            decimal.Decimal
	IncomingAmount       decimal.Decimal
	OutgoingAmount       decimal.Decimal
	Currency             string
	BaseCurrency         string
	BaseCurrencyAmount   decimal.Decimal
	ExchangeRate         decimal.Decimal
	AccountID            string
	AccountType          string
	Category             string
	Reference            *string
	Description          *string
	Status               string
	ReconciliationStatus string
	ApprovalStatus       string
	CreatedAt            time.Time
}

type ImportRun struct {
	ID              uuid.UUID
	CompanyID       int64
	CreatedByUserID *int64
	Filename        string
	FileSha256      string
	ArchiveURI      *string
	Status          string
	RowsTotal       int32
	RowsInserted    int32
	RowsFailed      int32
	SummaryJson     []byte
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

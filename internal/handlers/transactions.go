package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/api/internal/audit"
	"github.com/ledgerdesk/api/internal/httpx"
	"github.com/ledgerdesk/api/internal/middleware"
	"github.com/ledgerdesk/api/internal/store"
	"github.com/ledgerdesk/api/internal/txnimport"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type transactionResponse struct {
	ID                   int64              `json:"id"`
	CompanyID            int64              `json:"companyId"`
	ImportRunID          *uuid.UUID         `json:"importRunId"`
	Date                 openapi_types.Date `json:"date"`
	PaidBy               string             `json:"paidBy"`
	PaidTo               string             `json:"paidTo"`
	NetAmount            decimal.Decimal    `json:"netAmount"`
	IncomingAmount       decimal.Decimal    `json:"incomingAmount"`
	OutgoingAmount       decimal.Decimal    `json:"outgoingAmount"`
	Currency             string             `json:"currency"`
	BaseCurrency         string             `json:"baseCurrency"`
	BaseCurrencyAmount   decimal.Decimal    `json:"baseCurrencyAmount"`
	ExchangeRate         decimal.Decimal    `json:"exchangeRate"`
	AccountID            string             `json:"accountId"`
	AccountType          string             `json:"accountType"`
	Category             string             `json:"category"`
	Reference            *string            `json:"reference"`
	Description          *string            `json:"description"`
	Status               string             `json:"status"`
	ReconciliationStatus string             `json:"reconciliationStatus"`
	ApprovalStatus       string             `json:"approvalStatus"`
	CreatedAt            time.Time          `json:"createdAt"`
}

func mapTransaction(t store.Transaction) transactionResponse {
	return transactionResponse{
		ID:                   t.ID,
		CompanyID:            t.CompanyID,
		ImportRunID:          t.ImportRunID,
		Date:                 openapi_types.Date{Time: t.TransactionDate},
		PaidBy:               t.PaidBy,
		PaidTo:               t.PaidTo,
		NetAmount:            t.NetAmount,
		IncomingAmount:       t.IncomingAmount,
		OutgoingAmount:       t.OutgoingAmount,
		Currency:             t.Currency,
		BaseCurrency:         t.BaseCurrency,
		BaseCurrencyAmount:   t.BaseCurrencyAmount,
		ExchangeRate:         t.ExchangeRate,
		AccountID:            t.AccountID,
		AccountType:          t.AccountType,
		Category:             t.Category,
		Reference:            t.Reference,
		Description:          t.Description,
		Status:               t.Status,
		ReconciliationStatus: t.ReconciliationStatus,
		ApprovalStatus:       t.ApprovalStatus,
		CreatedAt:            t.CreatedAt.UTC(),
	}
}

// companyForRequest resolves the {companyId} path parameter to a company
// owned by the actor. It writes the error response itself and returns false
// when the request cannot continue.
func (s *Server) companyForRequest(w http.ResponseWriter, r *http.Request) (store.Company, middleware.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return store.Company{}, actor, false
	}

	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyId"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "Valid company ID is required", nil)
		return store.Company{}, actor, false
	}

	company, err := s.Store.GetCompanyForUser(r.Context(), companyID, actor.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.WriteError(w, http.StatusNotFound, "Company not found", nil)
			return store.Company{}, actor, false
		}
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load company", nil)
		return store.Company{}, actor, false
	}
	return company, actor, true
}

func (s *Server) GetCompanyTransactions(w http.ResponseWriter, r *http.Request) {
	company, _, ok := s.companyForRequest(w, r)
	if !ok {
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxListLimit {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500", nil)
			return
		}
		limit = parsed
	}

	rows, err := s.Store.ListTransactions(r.Context(), store.ListTransactionsParams{
		CompanyID: company.ID,
		Limit:     int32(limit),
	})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to list transactions", nil)
		return
	}

	items := make([]transactionResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapTransaction(row))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"transactions": items})
}

func (s *Server) GetCompanyTransactionsExport(w http.ResponseWriter, r *http.Request) {
	company, actor, ok := s.companyForRequest(w, r)
	if !ok {
		return
	}

	rows, err := s.Store.ListTransactions(r.Context(), store.ListTransactionsParams{CompanyID: company.ID})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to export transactions", nil)
		return
	}

	raw := make([]txnimport.RawTransactionRow, 0, len(rows))
	for _, row := range rows {
		raw = append(raw, row.Raw())
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="transactions-%d.csv"`, company.ID))
	w.WriteHeader(http.StatusOK)
	if err := txnimport.WriteCSV(w, raw); err != nil {
		s.Logger.Error("transactions_export_write_failed",
			"company_id", company.ID,
			"error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		return
	}

	companyID := company.ID
	userID := actor.UserID
	s.logAudit(r, audit.Entry{
		CompanyID:  &companyID,
		UserID:     &userID,
		Action:     "transactions.export_downloaded",
		EntityType: "company",
		EntityID:   strconv.FormatInt(company.ID, 10),
		Metadata:   map[string]any{"rows": len(raw)},
	})
}

func (s *Server) GetTransactionsImportTemplate(w http.ResponseWriter, r *http.Request) {
	body, err := txnimport.TemplateCSV()
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to build template", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions-template.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

package handlers

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/api/internal/store"
	"github.com/ledgerdesk/api/internal/txnimport"
)

func testRouter(srv *Server, userID int64) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, withActor(req, userID, store.RoleOwner))
		})
	})
	r.Get("/companies/{companyId}/transactions", srv.GetCompanyTransactions)
	r.Get("/companies/{companyId}/transactions/export.csv", srv.GetCompanyTransactionsExport)
	r.Get("/imports/{importRunId}", srv.GetImportRun)
	r.Get("/transactions/import/template.csv", srv.GetTransactionsImportTemplate)
	return r
}

func seededTransaction(id int64, companyID int64, paidBy string) store.Transaction {
	reference := "INV-" + paidBy
	return store.Transaction{
		ID:                   id,
		CompanyID:            companyID,
		TransactionDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PaidBy:               paidBy,
		PaidTo:               "Vendor, Inc",
		NetAmount:            decimal.RequireFromString("19.99"),
		IncomingAmount:       decimal.Zero,
		OutgoingAmount:       decimal.RequireFromString("19.99"),
		Currency:             "USD",
		BaseCurrency:         "USD",
		BaseCurrencyAmount:   decimal.RequireFromString("19.99"),
		ExchangeRate:         decimal.NewFromInt(1),
		AccountID:            "acc1",
		AccountType:          "bank",
		Category:             "Software",
		Reference:            &reference,
		Status:               txnimport.DefaultStatus,
		ReconciliationStatus: txnimport.DefaultReconciliationStatus,
		ApprovalStatus:       txnimport.DefaultApprovalStatus,
		CreatedAt:            time.Now(),
	}
}

func TestListTransactions(t *testing.T) {
	st := newFakeStore()
	st.transactions = []store.Transaction{
		seededTransaction(1, 7, "Alice"),
		seededTransaction(2, 7, "Bob"),
		seededTransaction(3, 8, "Mallory"),
	}
	handler := testRouter(newTestServer(st), 1)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/7/transactions?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	items := decodeBody(t, rec)["transactions"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected limit to apply, got %d items", len(items))
	}
	item := items[0].(map[string]any)
	if item["date"] != "2024-03-01" || item["netAmount"] != "19.99" || item["paidBy"] != "Alice" {
		t.Fatalf("unexpected item %v", item)
	}

	for _, path := range []string{"/companies/8/transactions", "/companies/404/transactions"} {
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/7/transactions?limit=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestExportTransactionsIsImportable(t *testing.T) {
	st := newFakeStore()
	st.transactions = []store.Transaction{seededTransaction(1, 7, "Alice"), seededTransaction(2, 7, "Bob")}
	srv := newTestServer(st)

	rec := httptest.NewRecorder()
	testRouter(srv, 1).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/7/transactions/export.csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "transactions-7.csv") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(records) != 3 || strings.Join(records[0], ",") != strings.Join(txnimport.TemplateHeader(), ",") {
		t.Fatalf("unexpected export %v", records)
	}

	plan, err := srv.Importer.Prepare(rec.Body.Bytes(), 7)
	if err != nil {
		t.Fatalf("prepare export for import: %v", err)
	}
	if len(plan.RowErrors) != 0 || len(plan.Candidates) != 2 {
		t.Fatalf("expected export to pass validation, got %+v", plan.RowErrors)
	}
	if plan.Candidates[0].Row.PaidTo != "Vendor, Inc" {
		t.Fatalf("expected quoted comma to survive, got %q", plan.Candidates[0].Row.PaidTo)
	}
	if actions := st.auditActions(); len(actions) != 1 || actions[0] != "transactions.export_downloaded" {
		t.Fatalf("unexpected audit actions %v", actions)
	}
}

func TestImportTemplate(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(newTestServer(newFakeStore()), 1).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/import/template.csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	firstLine := strings.SplitN(rec.Body.String(), "\n", 2)[0]
	if firstLine != strings.Join(txnimport.TemplateHeader(), ",") {
		t.Fatalf("unexpected template header %q", firstLine)
	}
}

func TestGetImportRun(t *testing.T) {
	st := newFakeStore()
	srv := newTestServer(st)
	rec := runImport(srv, withActor(uploadRequest(t, "7", "tx.csv", importCSV(importLine(1))), 1, store.RoleOwner))
	runID := rec.Header().Get("X-Import-Run-Id")
	if runID == "" {
		t.Fatal("expected import run id header")
	}

	rec = httptest.NewRecorder()
	testRouter(srv, 1).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports/"+runID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != store.ImportStatusCompleted || body["rowsInserted"] != float64(1) {
		t.Fatalf("unexpected run %v", body)
	}
	summary := body["summary"].(map[string]any)
	if summary["message"] != "Successfully imported 1 transactions" {
		t.Fatalf("unexpected summary %v", summary)
	}

	rec = httptest.NewRecorder()
	testRouter(srv, 2).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports/"+runID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	testRouter(srv, 1).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/imports/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown run, got %d", rec.Code)
	}
}

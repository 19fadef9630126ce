package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ledgerdesk/api/internal/audit"
	"github.com/ledgerdesk/api/internal/httpx"
	"github.com/ledgerdesk/api/internal/middleware"
	"github.com/ledgerdesk/api/internal/store"
	"github.com/ledgerdesk/api/internal/txnimport"
)

const (
	importFailedMessage = "Failed to import transactions"
	multipartMemory     = 32 << 20
)

type appError struct {
	Status  int
	Message string
	Details map[string]any
}

type importUpload struct {
	companyID  int64
	filename   string
	fileSHA256 string
	data       []byte
}

// parseImportUpload enforces the request-shape rules in order: body size,
// file presence, company id, then file extension.
func parseImportUpload(r *http.Request) (importUpload, *appError) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		switch {
		case isBodyTooLarge(err):
			return importUpload{}, &appError{Status: http.StatusRequestEntityTooLarge, Message: "File is too large"}
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return importUpload{}, &appError{Status: http.StatusBadRequest, Message: "No file provided"}
		default:
			return importUpload{}, &appError{Status: http.StatusInternalServerError, Message: importFailedMessage}
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return importUpload{}, &appError{Status: http.StatusBadRequest, Message: "No file provided"}
		}
		return importUpload{}, &appError{Status: http.StatusInternalServerError, Message: importFailedMessage}
	}
	defer file.Close()

	companyID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("companyId")), 10, 64)
	if err != nil || companyID <= 0 {
		return importUpload{}, &appError{Status: http.StatusBadRequest, Message: "Valid company ID is required"}
	}

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		return importUpload{}, &appError{Status: http.StatusBadRequest, Message: "Only CSV files are supported"}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			return importUpload{}, &appError{Status: http.StatusRequestEntityTooLarge, Message: "File is too large"}
		}
		return importUpload{}, &appError{Status: http.StatusInternalServerError, Message: importFailedMessage}
	}

	sum := sha256.Sum256(data)
	return importUpload{
		companyID:  companyID,
		filename:   header.Filename,
		fileSHA256: hex.EncodeToString(sum[:]),
		data:       data,
	}, nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// mime/multipart does not always wrap the reader error.
	return strings.Contains(err.Error(), "request body too large")
}

// rejection maps a pre-validation pipeline error to its response. ok is false
// for errors that are not request-shape or header problems.
func rejection(err error) (appError, bool) {
	var missing *txnimport.MissingColumnsError
	var limit *txnimport.RowLimitError
	switch {
	case errors.Is(err, txnimport.ErrTooFewLines):
		return appError{Status: http.StatusBadRequest, Message: "File must contain at least a header row and one data row"}, true
	case errors.As(err, &missing):
		return appError{Status: http.StatusBadRequest, Message: "Missing required columns", Details: map[string]any{
			"missingFields":    missing.MissingFields,
			"availableColumns": missing.AvailableColumns,
			"requiredColumns":  missing.RequiredColumns,
		}}, true
	case errors.As(err, &limit):
		return appError{Status: http.StatusBadRequest, Message: "File exceeds the maximum number of rows", Details: map[string]any{
			"maxRows": limit.MaxRows,
		}}, true
	}
	return appError{}, false
}

func (s *Server) PostTransactionsImport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFromContext(r.Context())
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.Logger.Error("import_panic", "panic", rec, "request_id", requestID)
			httpx.WriteError(w, http.StatusInternalServerError, importFailedMessage, nil)
		}
	}()

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	upload, appErr := parseImportUpload(r)
	if appErr != nil {
		httpx.WriteError(w, appErr.Status, appErr.Message, appErr.Details)
		return
	}

	company, err := s.Store.GetCompanyForUser(r.Context(), upload.companyID, actor.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.WriteError(w, http.StatusNotFound, "Company not found", nil)
			return
		}
		s.Logger.Error("import_company_lookup_failed", "error", err, "request_id", requestID)
		httpx.WriteError(w, http.StatusInternalServerError, importFailedMessage, nil)
		return
	}

	userID := actor.UserID
	run, err := s.Store.CreateImportRun(r.Context(), store.CreateImportRunParams{
		CompanyID:       company.ID,
		CreatedByUserID: &userID,
		Filename:        upload.filename,
		FileSha256:      upload.fileSHA256,
	})
	if err != nil {
		s.Logger.Error("import_run_create_failed", "error", err, "request_id", requestID)
		httpx.WriteError(w, http.StatusInternalServerError, importFailedMessage, nil)
		return
	}
	w.Header().Set("X-Import-Run-Id", run.ID.String())

	s.archiveUpload(r, run.ID, upload)

	companyID := company.ID
	s.logAudit(r, audit.Entry{
		CompanyID:  &companyID,
		UserID:     &userID,
		Action:     "transactions.import_started",
		EntityType: "import_run",
		EntityID:   run.ID.String(),
		Metadata: map[string]any{
			"filename":   upload.filename,
			"fileSha256": upload.fileSHA256,
			"bytes":      len(upload.data),
		},
	})

	plan, err := s.Importer.Prepare(upload.data, company.ID)
	if err != nil {
		rejected, ok := rejection(err)
		if !ok {
			s.Logger.Error("import_prepare_failed", "error", err, "request_id", requestID)
			s.finishRun(r, run.ID, companyID, store.CompleteImportRunParams{Status: store.ImportStatusRejected}, map[string]any{"error": importFailedMessage})
			httpx.WriteError(w, http.StatusInternalServerError, importFailedMessage, nil)
			return
		}
		summary := map[string]any{"error": rejected.Message}
		for key, value := range rejected.Details {
			summary[key] = value
		}
		s.finishRun(r, run.ID, companyID, store.CompleteImportRunParams{Status: store.ImportStatusRejected}, summary)
		httpx.WriteError(w, rejected.Status, rejected.Message, rejected.Details)
		return
	}

	runID := run.ID
	outcome := s.Importer.Execute(r.Context(), plan, txnimport.WriterFunc(func(ctx context.Context, row txnimport.RawTransactionRow) error {
		return s.Store.InsertTransaction(ctx, &runID, row)
	}))

	if outcome.ValidationFailed() {
		report := outcome.Validation
		body := map[string]any{
			"errors":         report.Errors,
			"totalErrors":    report.TotalErrors,
			"successfulRows": report.SuccessfulRows,
		}
		summary := map[string]any{"error": "Failed to parse some rows"}
		for key, value := range body {
			summary[key] = value
		}
		s.finishRun(r, run.ID, companyID, store.CompleteImportRunParams{
			Status:     store.ImportStatusValidationFailed,
			RowsTotal:  int32(outcome.Rows),
			RowsFailed: int32(report.TotalErrors),
		}, summary)
		httpx.WriteError(w, http.StatusBadRequest, "Failed to parse some rows", body)
		return
	}

	report := outcome.Persisted
	s.finishRun(r, run.ID, companyID, store.CompleteImportRunParams{
		Status:       store.ImportStatusCompleted,
		RowsTotal:    int32(outcome.Rows),
		RowsInserted: int32(report.Success),
		RowsFailed:   int32(len(report.Errors)),
	}, report)
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) archiveUpload(r *http.Request, runID uuid.UUID, upload importUpload) {
	uri, err := s.Archiver.Archive(r.Context(), upload.companyID, upload.fileSHA256, upload.data)
	if err != nil {
		s.Logger.Warn("import_archive_failed",
			"import_run_id", runID.String(),
			"error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		return
	}
	if uri == "" {
		return
	}
	if err := s.Store.SetImportRunArchiveURI(r.Context(), runID, uri); err != nil {
		s.Logger.Warn("import_archive_uri_save_failed", "import_run_id", runID.String(), "error", err)
	}
}

// finishRun closes the import run and writes the completion audit entry.
// Bookkeeping failures are logged and never change the response.
func (s *Server) finishRun(r *http.Request, runID uuid.UUID, companyID int64, params store.CompleteImportRunParams, summary any) {
	params.ID = runID
	encoded, err := json.Marshal(summary)
	if err != nil {
		encoded = []byte(`{}`)
	}
	params.SummaryJson = encoded

	if _, err := s.Store.CompleteImportRun(r.Context(), params); err != nil {
		s.Logger.Error("import_run_complete_failed",
			"import_run_id", runID.String(),
			"error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
	}

	var userID *int64
	if actor, ok := middleware.ActorFromContext(r.Context()); ok {
		id := actor.UserID
		userID = &id
	}
	s.logAudit(r, audit.Entry{
		CompanyID:  &companyID,
		UserID:     userID,
		Action:     "transactions.import_completed",
		EntityType: "import_run",
		EntityID:   runID.String(),
		Metadata: map[string]any{
			"status":       params.Status,
			"rowsTotal":    params.RowsTotal,
			"rowsInserted": params.RowsInserted,
			"rowsFailed":   params.RowsFailed,
		},
	})
}

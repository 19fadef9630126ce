package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/ledgerdesk/api/internal/app"
	"github.com/ledgerdesk/api/internal/archive"
	"github.com/ledgerdesk/api/internal/audit"
	"github.com/ledgerdesk/api/internal/config"
	"github.com/ledgerdesk/api/internal/db"
	"github.com/ledgerdesk/api/internal/store"
	"github.com/ledgerdesk/api/internal/txnimport"
)

type importOptions struct {
	companyID int64
	file      string
	dryRun    bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a transactions CSV for one company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Int64Var(&opts.companyID, "company", 0, "Company ID (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Local path or gs://bucket/object of the CSV (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate without writing to the database")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("file")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if opts.companyID <= 0 {
			return errors.New("--company must be a positive integer")
		}
		if !strings.HasSuffix(strings.ToLower(opts.file), ".csv") {
			return errors.New("only CSV files are supported")
		}
		return nil
	}

	return cmd
}

type importResult struct {
	ImportRunID string                         `json:"importRunId,omitempty"`
	Status      string                         `json:"status"`
	Rows        int                            `json:"rows"`
	Validation  *txnimport.ValidationReport    `json:"validation,omitempty"`
	Persisted   *txnimport.PersistReport       `json:"persisted,omitempty"`
	Missing     *txnimport.MissingColumnsError `json:"missingColumns,omitempty"`
	Error       string                         `json:"error,omitempty"`
}

func runImport(ctx context.Context, out io.Writer, opts importOptions) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := readSource(ctx, opts.file)
	if err != nil {
		return err
	}

	importer, err := app.NewImporter(cfg, logger)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	q := store.New(pool)

	company, err := q.GetCompany(ctx, opts.companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("company %d not found", opts.companyID)
		}
		return fmt.Errorf("load company: %w", err)
	}

	if opts.dryRun {
		return writeResult(out, prepareOnly(importer, data, company.ID))
	}

	sum := sha256.Sum256(data)
	shaHex := hex.EncodeToString(sum[:])
	run, err := q.CreateImportRun(ctx, store.CreateImportRunParams{
		CompanyID:  company.ID,
		Filename:   filepath.Base(opts.file),
		FileSha256: shaHex,
	})
	if err != nil {
		return fmt.Errorf("create import run: %w", err)
	}

	archiver, closeArchiver, err := app.NewArchiver(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeArchiver()
	if uri, err := archiver.Archive(ctx, company.ID, shaHex, data); err != nil {
		logger.Warn("import_archive_failed", "import_run_id", run.ID.String(), "error", err)
	} else if uri != "" {
		if err := q.SetImportRunArchiveURI(ctx, run.ID, uri); err != nil {
			logger.Warn("import_archive_uri_save_failed", "import_run_id", run.ID.String(), "error", err)
		}
	}

	auditLogger := audit.NewLogger(q)
	companyID := company.ID
	logAudit(ctx, auditLogger, logger, audit.Entry{
		CompanyID:  &companyID,
		Action:     "transactions.import_started",
		EntityType: "import_run",
		EntityID:   run.ID.String(),
		Metadata:   map[string]any{"source": "ledgerctl", "filename": run.Filename},
	})

	result := importResult{ImportRunID: run.ID.String()}
	params := store.CompleteImportRunParams{ID: run.ID}

	outcome, err := importer.Run(ctx, data, company.ID, q.TransactionWriter(&run.ID))
	var missing *txnimport.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		result.Status = store.ImportStatusRejected
		result.Missing = missing
		result.Error = "Missing required columns"
	case err != nil:
		result.Status = store.ImportStatusRejected
		result.Error = err.Error()
	case outcome.ValidationFailed():
		result.Status = store.ImportStatusValidationFailed
		result.Rows = outcome.Rows
		result.Validation = outcome.Validation
		params.RowsTotal = int32(outcome.Rows)
		params.RowsFailed = int32(outcome.Validation.TotalErrors)
	default:
		result.Status = store.ImportStatusCompleted
		result.Rows = outcome.Rows
		result.Persisted = outcome.Persisted
		params.RowsTotal = int32(outcome.Rows)
		params.RowsInserted = int32(outcome.Persisted.Success)
		params.RowsFailed = int32(len(outcome.Persisted.Errors))
	}

	params.Status = result.Status
	params.SummaryJson, _ = json.Marshal(result)
	if _, err := q.CompleteImportRun(ctx, params); err != nil {
		logger.Error("import_run_complete_failed", "import_run_id", run.ID.String(), "error", err)
	}
	logAudit(ctx, auditLogger, logger, audit.Entry{
		CompanyID:  &companyID,
		Action:     "transactions.import_completed",
		EntityType: "import_run",
		EntityID:   run.ID.String(),
		Metadata: map[string]any{
			"source":       "ledgerctl",
			"status":       params.Status,
			"rowsInserted": params.RowsInserted,
			"rowsFailed":   params.RowsFailed,
		},
	})

	if err := writeResult(out, result); err != nil {
		return err
	}
	if result.Status != store.ImportStatusCompleted {
		return fmt.Errorf("import %s", result.Status)
	}
	return nil
}

func logAudit(ctx context.Context, auditLogger *audit.Logger, logger *slog.Logger, entry audit.Entry) {
	if err := auditLogger.Log(ctx, entry); err != nil {
		logger.Warn("audit_log_failed",
			"action", entry.Action,
			"entity_id", entry.EntityID,
			"error", err,
		)
	}
}

func prepareOnly(importer *txnimport.Importer, data []byte, companyID int64) importResult {
	plan, err := importer.Prepare(data, companyID)
	var missing *txnimport.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return importResult{Status: store.ImportStatusRejected, Missing: missing, Error: "Missing required columns"}
	case err != nil:
		return importResult{Status: store.ImportStatusRejected, Error: err.Error()}
	}

	result := importResult{Status: "valid", Rows: plan.Rows}
	if len(plan.RowErrors) > 0 {
		reported := plan.RowErrors
		if len(reported) > txnimport.MaxReportedErrors {
			reported = reported[:txnimport.MaxReportedErrors]
		}
		result.Status = store.ImportStatusValidationFailed
		result.Validation = &txnimport.ValidationReport{
			Errors:         reported,
			TotalErrors:    len(plan.RowErrors),
			SuccessfulRows: len(plan.Candidates),
		}
	}
	return result
}

// readSource loads a local file or a gs:// object.
func readSource(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "gs://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		return data, nil
	}

	bucket, _, err := archive.SplitURI(source)
	if err != nil {
		return nil, err
	}
	gcs, err := archive.NewGCSArchiver(ctx, bucket)
	if err != nil {
		return nil, err
	}
	defer gcs.Close()
	return gcs.Fetch(ctx, source)
}

func writeResult(out io.Writer, result importResult) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

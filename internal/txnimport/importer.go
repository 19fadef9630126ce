package txnimport

import (
	"context"
	"log/slog"
)

const MaxReportedErrors = 10

type ValidationReport struct {
	Errors         []RowError `json:"errors"`
	TotalErrors    int        `json:"totalErrors"`
	SuccessfulRows int        `json:"successfulRows"`
}

// Outcome is the terminal result of an import that got past the header gate.
// Exactly one of Validation and Persisted is set.
type Outcome struct {
	Rows       int
	Validation *ValidationReport
	Persisted  *PersistReport
}

func (o Outcome) ValidationFailed() bool {
	return o.Validation != nil
}

// Plan is a decoded and fully validated file, ready to persist.
type Plan struct {
	Headers    []string
	Mapping    ColumnIndexMap
	Rows       int
	Candidates []Candidate
	RowErrors  []RowError
}

type Importer struct {
	Aliases AliasTable
	MaxRows int
	Logger  *slog.Logger
}

func NewImporter(aliases AliasTable, maxRows int, logger *slog.Logger) *Importer {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{Aliases: aliases, MaxRows: maxRows, Logger: logger}
}

// Prepare decodes the file, resolves the header and validates every row
// without touching storage.
func (im *Importer) Prepare(data []byte, companyID int64) (Plan, error) {
	table, err := Decode(data, im.MaxRows)
	if err != nil {
		return Plan{}, err
	}

	mapping := MapHeader(table.Headers, im.Aliases)
	if err := CheckRequired(table.Headers, mapping); err != nil {
		return Plan{}, err
	}

	candidates, rowErrors := ParseRows(table.Rows, mapping, companyID)
	return Plan{
		Headers:    table.Headers,
		Mapping:    mapping,
		Rows:       len(table.Rows),
		Candidates: candidates,
		RowErrors:  rowErrors,
	}, nil
}

// Execute applies the batch gate and, when every row is valid, persists them.
func (im *Importer) Execute(ctx context.Context, plan Plan, w Writer) Outcome {
	if len(plan.RowErrors) > 0 {
		reported := plan.RowErrors
		if len(reported) > MaxReportedErrors {
			reported = reported[:MaxReportedErrors]
		}
		im.Logger.Info("import_validation_failed",
			"rows", plan.Rows,
			"total_errors", len(plan.RowErrors),
		)
		return Outcome{
			Rows: plan.Rows,
			Validation: &ValidationReport{
				Errors:         reported,
				TotalErrors:    len(plan.RowErrors),
				SuccessfulRows: len(plan.Candidates),
			},
		}
	}

	report := Persist(ctx, w, plan.Candidates)
	im.Logger.Info("import_persisted",
		"rows", plan.Rows,
		"inserted", report.Success,
		"insert_errors", len(report.Errors),
	)
	return Outcome{Rows: plan.Rows, Persisted: &report}
}

func (im *Importer) Run(ctx context.Context, data []byte, companyID int64, w Writer) (Outcome, error) {
	plan, err := im.Prepare(data, companyID)
	if err != nil {
		return Outcome{}, err
	}
	return im.Execute(ctx, plan, w), nil
}

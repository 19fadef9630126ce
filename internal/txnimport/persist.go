package txnimport

import (
	"context"
	"fmt"
)

const fallbackInsertError = "Database insert failed"

// Writer stores one transaction. Implementations must not batch: each call is
// an independent insert whose failure affects only that row.
type Writer interface {
	WriteTransaction(ctx context.Context, row RawTransactionRow) error
}

type WriterFunc func(ctx context.Context, row RawTransactionRow) error

func (f WriterFunc) WriteTransaction(ctx context.Context, row RawTransactionRow) error {
	return f(ctx, row)
}

type PersistReport struct {
	Success int        `json:"success"`
	Errors  []RowError `json:"errors"`
	Message string     `json:"message"`
}

// Persist inserts candidates one at a time in file order. Failed inserts are
// recorded against their original line and never retried.
func Persist(ctx context.Context, w Writer, candidates []Candidate) PersistReport {
	report := PersistReport{Errors: []RowError{}}
	for _, candidate := range candidates {
		if err := w.WriteTransaction(ctx, candidate.Row); err != nil {
			message := err.Error()
			if message == "" {
				message = fallbackInsertError
			}
			report.Errors = append(report.Errors, RowError{Row: candidate.Line, Error: message})
			continue
		}
		report.Success++
	}
	report.Message = fmt.Sprintf("Successfully imported %d transactions", report.Success)
	return report
}

package store

import (
	"context"

	"github.com/google/uuid"
)

const importRunColumns = `
id, company_id, created_by_user_id, filename, file_sha256, archive_uri, status,
rows_total, rows_inserted, rows_failed, summary_json, created_at, completed_at
`

func scanImportRun(row interface{ Scan(...any) error }) (ImportRun, error) {
	var r ImportRun
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.CreatedByUserID, &r.Filename, &r.FileSha256, &r.ArchiveURI, &r.Status,
		&r.RowsTotal, &r.RowsInserted, &r.RowsFailed, &r.SummaryJson, &r.CreatedAt, &r.CompletedAt,
	)
	return r, err
}

const createImportRun = `
INSERT INTO import_runs (id, company_id, created_by_user_id, filename, file_sha256, status)
VALUES ($1, $2, $3, $4, $5, 'pending')
RETURNING ` + importRunColumns

type CreateImportRunParams struct {
	CompanyID       int64
	CreatedByUserID *int64
	Filename        string
	FileSha256      string
}

func (q *Queries) CreateImportRun(ctx context.Context, arg CreateImportRunParams) (ImportRun, error) {
	return scanImportRun(q.db.QueryRow(ctx, createImportRun,
		uuid.New(), arg.CompanyID, arg.CreatedByUserID, arg.Filename, arg.FileSha256,
	))
}

const setImportRunArchiveURI = `UPDATE import_runs SET archive_uri = $2 WHERE id = $1`

func (q *Queries) SetImportRunArchiveURI(ctx context.Context, id uuid.UUID, uri string) error {
	_, err := q.db.Exec(ctx, setImportRunArchiveURI, id, uri)
	return err
}

const completeImportRun = `
UPDATE import_runs
SET status = $2,
    rows_total = $3,
    rows_inserted = $4,
    rows_failed = $5,
    summary_json = $6,
    completed_at = now()
WHERE id = $1
RETURNING ` + importRunColumns

type CompleteImportRunParams struct {
	ID           uuid.UUID
	Status       string
	RowsTotal    int32
	RowsInserted int32
	RowsFailed   int32
	SummaryJson  []byte
}

func (q *Queries) CompleteImportRun(ctx context.Context, arg CompleteImportRunParams) (ImportRun, error) {
	summary := arg.SummaryJson
	if len(summary) == 0 {
		summary = []byte("{}")
	}
	return scanImportRun(q.db.QueryRow(ctx, completeImportRun,
		arg.ID, arg.Status, arg.RowsTotal, arg.RowsInserted, arg.RowsFailed, summary,
	))
}

const getImportRunForUser = `
SELECT ` + importRunColumns + `
FROM import_runs
WHERE id = $1
  AND company_id IN (SELECT c.id FROM companies c WHERE c.owner_user_id = $2)
`

func (q *Queries) GetImportRunForUser(ctx context.Context, id uuid.UUID, userID int64) (ImportRun, error) {
	return scanImportRun(q.db.QueryRow(ctx, getImportRunForUser, id, userID))
}

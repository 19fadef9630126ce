package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/api/internal/txnimport"
)

const insertTransaction = `
INSERT INTO transactions (
    company_id, import_run_id, transaction_date, paid_by, paid_to,
    net_amount, incoming_amount, outgoing_amount,
    currency, base_currency, base_currency_amount, exchange_rate,
    account_id, account_type, category, reference, description,
    status, reconciliation_status, approval_status, is_deleted
) VALUES (
    $1, $2, $3, $4, $5,
    $6::numeric, $7::numeric, $8::numeric,
    $9, $10, $11::numeric, $12::numeric,
    $13, $14, $15, $16, $17,
    $18, $19, $20, $21
)
`

func (q *Queries) InsertTransaction(ctx context.Context, importRunID *uuid.UUID, row txnimport.RawTransactionRow) error {
	_, err := q.db.Exec(ctx, insertTransaction,
		row.CompanyID, importRunID, row.Date, row.PaidBy, row.PaidTo,
		row.NetAmount.String(), row.IncomingAmount.String(), row.OutgoingAmount.String(),
		row.Currency, row.BaseCurrency, row.BaseCurrencyAmount.String(), row.ExchangeRate.String(),
		row.AccountID, row.AccountType, row.Category, row.Reference, row.Description,
		row.Status, row.ReconciliationStatus, row.ApprovalStatus, row.IsDeleted,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Row errors carry the server message without the SQLSTATE suffix.
		return errors.New(pgErr.Message)
	}
	return err
}

// TransactionWriter binds InsertTransaction to one import run.
func (q *Queries) TransactionWriter(importRunID *uuid.UUID) txnimport.Writer {
	return txnimport.WriterFunc(func(ctx context.Context, row txnimport.RawTransactionRow) error {
		return q.InsertTransaction(ctx, importRunID, row)
	})
}

const listTransactions = `
SELECT id, company_id, import_run_id, transaction_date, paid_by, paid_to,
       net_amount::text, incoming_amount::text, outgoing_amount::text,
       currency, base_currency, base_currency_amount::text, exchange_rate::text,
       account_id, account_type, category, reference, description,
       status, reconciliation_status, approval_status, created_at
FROM transactions
WHERE company_id = $1 AND NOT is_deleted
ORDER BY transaction_date DESC, id DESC
LIMIT $2
`

type ListTransactionsParams struct {
	CompanyID int64
	// Limit <= 0 lists everything.
	Limit int32
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	var limit *int32
	if arg.Limit > 0 {
		limit = &arg.Limit
	}
	rows, err := q.db.Query(ctx, listTransactions, arg.CompanyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Transaction{}
	for rows.Next() {
		item, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var net, incoming, outgoing, base, fx string
	if err := row.Scan(
		&t.ID, &t.CompanyID, &t.ImportRunID, &t.TransactionDate, &t.PaidBy, &t.PaidTo,
		&net, &incoming, &outgoing,
		&t.Currency, &t.BaseCurrency, &base, &fx,
		&t.AccountID, &t.AccountType, &t.Category, &t.Reference, &t.Description,
		&t.Status, &t.ReconciliationStatus, &t.ApprovalStatus, &t.CreatedAt,
	); err != nil {
		return Transaction{}, err
	}

	amounts := []struct {
		raw    string
		target *decimal.Decimal
	}{
		{net, &t.NetAmount},
		{incoming, &t.IncomingAmount},
		{outgoing, &t.OutgoingAmount},
		{base, &t.BaseCurrencyAmount},
		{fx, &t.ExchangeRate},
	}
	for _, amount := range amounts {
		parsed, err := decimal.NewFromString(amount.raw)
		if err != nil {
			return Transaction{}, fmt.Errorf("parse numeric %q: %w", amount.raw, err)
		}
		*amount.target = parsed
	}
	return t, nil
}

// Raw converts a stored transaction back into the import row shape.
func (t Transaction) Raw() txnimport.RawTransactionRow {
	return txnimport.RawTransactionRow{
		Date:                 t.TransactionDate,
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
		CompanyID:            t.CompanyID,
	}
}

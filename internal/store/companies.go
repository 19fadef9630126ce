package store

import "context"

const getCompanyForUser = `
SELECT id, owner_user_id, name, base_currency, created_at
FROM companies
WHERE id = $1 AND owner_user_id = $2
`

func (q *Queries) GetCompanyForUser(ctx context.Context, companyID, userID int64) (Company, error) {
	var c Company
	err := q.db.QueryRow(ctx, getCompanyForUser, companyID, userID).Scan(
		&c.ID, &c.OwnerUserID, &c.Name, &c.BaseCurrency, &c.CreatedAt,
	)
	return c, err
}

const getCompany = `
SELECT id, owner_user_id, name, base_currency, created_at
FROM companies
WHERE id = $1
`

func (q *Queries) GetCompany(ctx context.Context, companyID int64) (Company, error) {
	var c Company
	err := q.db.QueryRow(ctx, getCompany, companyID).Scan(
		&c.ID, &c.OwnerUserID, &c.Name, &c.BaseCurrency, &c.CreatedAt,
	)
	return c, err
}

const upsertCompany = `
INSERT INTO companies (owner_user_id, name, base_currency)
VALUES ($1, $2, $3)
ON CONFLICT (owner_user_id, name) DO UPDATE SET base_currency = EXCLUDED.base_currency
RETURNING id, owner_user_id, name, base_currency, created_at
`

type UpsertCompanyParams struct {
	OwnerUserID  int64
	Name         string
	BaseCurrency string
}

func (q *Queries) UpsertCompany(ctx context.Context, arg UpsertCompanyParams) (Company, error) {
	var c Company
	err := q.db.QueryRow(ctx, upsertCompany, arg.OwnerUserID, arg.Name, arg.BaseCurrency).Scan(
		&c.ID, &c.OwnerUserID, &c.Name, &c.BaseCurrency, &c.CreatedAt,
	)
	return c, err
}

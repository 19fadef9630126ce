package store

import "context"

const insertAuditLog = `
INSERT INTO audit_logs (company_id, user_id, action, entity_type, entity_id, request_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertAuditLogParams struct {
	CompanyID  *int64
	UserID     *int64
	Action     string
	EntityType string
	EntityID   *string
	RequestID  *string
	Metadata   []byte
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, insertAuditLog,
		arg.CompanyID, arg.UserID, arg.Action, arg.EntityType, arg.EntityID, arg.RequestID, arg.Metadata,
	)
	return err
}

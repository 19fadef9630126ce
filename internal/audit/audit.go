package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ledgerdesk/api/internal/store"
)

type Inserter interface {
	InsertAuditLog(ctx context.Context, arg store.InsertAuditLogParams) error
}

type Logger struct {
	q Inserter
}

func NewLogger(q Inserter) *Logger {
	return &Logger{q: q}
}

type Entry struct {
	CompanyID  *int64
	UserID     *int64
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	Metadata   map[string]any
}

func (l *Logger) Log(ctx context.Context, entry Entry) error {
	metadata := []byte("{}")
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = encoded
	}

	params := store.InsertAuditLogParams{
		CompanyID:  entry.CompanyID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		Metadata:   metadata,
	}
	if entry.EntityID != "" {
		params.EntityID = &entry.EntityID
	}
	if entry.RequestID != "" {
		params.RequestID = &entry.RequestID
	}

	if err := l.q.InsertAuditLog(ctx, params); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

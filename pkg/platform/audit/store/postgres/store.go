package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "storefront/pkg/domain"
	audit "storefront/pkg/platform/audit"
	"storefront/pkg/platform/tx"
)

// Store appends audit events to the audit_events table. When called inside a
// transaction the row commits or rolls back with the business write.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, tenant_id, user_id, category, action, subject, reason, request_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Q(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		nullableTenant(event.TenantID),
		nullableUser(event.UserID),
		string(event.Category),
		event.Action,
		event.Subject,
		event.Reason,
		event.RequestID,
		payload,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByTenant returns a tenant's events oldest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]audit.Event, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT payload FROM audit_events WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var e audit.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullableTenant(t id.TenantID) any {
	if t.IsNil() {
		return nil
	}
	return t
}

func nullableUser(u id.UserID) any {
	if u.IsNil() {
		return nil
	}
	return u
}

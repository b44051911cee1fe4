package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "storefront/pkg/domain"
	audit "storefront/pkg/platform/audit"
)

func TestAppendInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := id.TenantID(uuid.New())
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: now,
		TenantID:  tenantID,
		Subject:   "ORD-0A1B2C3D",
		Action:    string(audit.EventOrderCreated),
	}

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs(sqlmock.AnyArg(), tenantID, nil, "operations", "order_created", "ORD-0A1B2C3D", "", "", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, New(db).Append(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByTenantDecodesPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := id.TenantID(uuid.New())
	payload, err := json.Marshal(audit.Event{TenantID: tenantID, Action: "tenant_created"})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM audit_events").
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	events, err := New(db).ListByTenant(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "tenant_created", events[0].Action)
	assert.Equal(t, tenantID, events[0].TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

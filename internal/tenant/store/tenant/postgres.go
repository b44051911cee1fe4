package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/platform/postgres"
	"storefront/internal/tenant/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/platform/tx"
)

const tenantColumns = `id, name, store_name, contact_email, contact_phone, domain, subdomain, status, created_at, updated_at`

// PostgresStore persists tenants in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, t *models.Tenant) error {
	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, query,
		t.ID, t.Name, t.StoreName, t.ContactEmail, t.ContactPhone, t.Domain, t.Subdomain, string(t.Status), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	return s.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID)
}

func (s *PostgresStore) FindActiveByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	return s.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1 AND status = 'active'`, tenantID)
}

func (s *PostgresStore) FindActiveBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	return s.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1 AND status = 'active'`, subdomain)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return out, nil
}

// Execute locks the tenant row, runs validate and mutate, and writes the result
// in one transaction.
func (s *PostgresStore) Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant) error) (*models.Tenant, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	row := sqlTx.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, tenantID)
	t, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock tenant: %w", err)
	}
	if err := validate(t); err != nil {
		return nil, err
	}
	if err := mutate(t); err != nil {
		return nil, err
	}

	_, err = sqlTx.ExecContext(ctx, `
		UPDATE tenants
		SET name = $2, store_name = $3, contact_email = $4, contact_phone = $5, domain = $6,
		    subdomain = $7, status = $8, updated_at = $9
		WHERE id = $1
	`, t.ID, t.Name, t.StoreName, t.ContactEmail, t.ContactPhone, t.Domain, t.Subdomain, string(t.Status), t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update tenant: %w", postgres.Classify(err))
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tenant update: %w", err)
	}
	return t, nil
}

// Delete removes the tenant; users, products and orders cascade in the schema.
func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", postgres.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tenant rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Tenant, error) {
	t, err := scanTenant(tx.Q(ctx, s.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(row scanner) (*models.Tenant, error) {
	var (
		t      models.Tenant
		domain sql.NullString
		status string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.StoreName, &t.ContactEmail, &t.ContactPhone, &domain, &t.Subdomain, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if domain.Valid {
		d := domain.String
		t.Domain = &d
	}
	t.Status = models.TenantStatus(status)
	return &t, nil
}

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"storefront/internal/catalog/models"
	"storefront/internal/platform/postgres"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/platform/tx"
)

const productColumns = `id, tenant_id, name, description, price, stock, category, image_url, is_active, created_by, created_at, updated_at`

// PostgresStore persists products in PostgreSQL. Every query is scoped by
// tenant_id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, query,
		p.ID, p.TenantID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.IsActive,
		p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, productID id.ProductID) (*models.Product, error) {
	p, err := scanProduct(tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND tenant_id = $2`, productID, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID id.TenantID, f models.Filter) ([]*models.Product, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	return s.query(ctx, query, args...)
}

func (s *PostgresStore) Categories(ctx context.Context, tenantID id.TenantID) ([]string, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE tenant_id = $1 ORDER BY category`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// Execute locks the row, applies mutate and writes the result. It joins the
// caller's transaction when there is one.
func (s *PostgresStore) Execute(ctx context.Context, tenantID id.TenantID, productID id.ProductID, mutate func(*models.Product) error) (*models.Product, error) {
	run := func(q tx.Querier) (*models.Product, error) {
		p, err := scanProduct(q.QueryRowContext(ctx,
			`SELECT `+productColumns+` FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, productID, tenantID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, sentinel.ErrNotFound
			}
			return nil, fmt.Errorf("lock product: %w", err)
		}
		if err := mutate(p); err != nil {
			return nil, err
		}
		_, err = q.ExecContext(ctx, `
			UPDATE products
			SET name = $3, description = $4, price = $5, stock = $6, category = $7, image_url = $8,
			    is_active = $9, updated_at = $10
			WHERE id = $1 AND tenant_id = $2
		`, p.ID, p.TenantID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.IsActive, p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("update product: %w", postgres.Classify(err))
		}
		return p, nil
	}

	if sqlTx, ok := tx.From(ctx); ok {
		return run(sqlTx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	p, err := run(sqlTx)
	if err != nil {
		return nil, err
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit product update: %w", err)
	}
	return p, nil
}

// Delete removes the product. order_items.product_id is ON DELETE RESTRICT,
// so a referenced product surfaces as sentinel.ErrConflict.
func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID, productID id.ProductID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND tenant_id = $2`, productID, tenantID)
	if err != nil {
		return fmt.Errorf("delete product: %w", postgres.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// LockForOrder takes row locks on the tenant's products among productIDs in
// id order, so concurrent orders over overlapping products cannot deadlock.
// Must run inside a transaction.
func (s *PostgresStore) LockForOrder(ctx context.Context, tenantID id.TenantID, productIDs []id.ProductID) ([]*models.Product, error) {
	ids := make([]string, len(productIDs))
	for i, pid := range productIDs {
		ids[i] = pid.String()
	}
	return s.query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE tenant_id = $1 AND id = ANY($2::uuid[])
		ORDER BY id
		FOR UPDATE
	`, tenantID, pq.Array(ids))
}

// DecrementStock is a conditional update; zero affected rows means the stock
// would have gone negative.
func (s *PostgresStore) DecrementStock(ctx context.Context, tenantID id.TenantID, productID id.ProductID, qty int) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE products SET stock = stock - $3
		WHERE id = $1 AND tenant_id = $2 AND stock >= $3
	`, productID, tenantID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", postgres.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrInsufficientStock
	}
	return nil
}

func (s *PostgresStore) DeleteByTenant(ctx context.Context, tenantID id.TenantID) error {
	if _, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM products WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("delete tenant products: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p         models.Product
		createdBy id.NullUserID
	)
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.ImageURL,
		&p.IsActive, &createdBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedBy = createdBy.Ptr()
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"storefront/internal/order/models"
	"storefront/internal/platform/postgres"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/platform/tx"
)

const (
	orderColumns = `id, tenant_id, customer_id, order_number, status, total_amount, shipping_address, notes, assigned_staff_id, created_at, updated_at`
	itemColumns  = `id, order_id, product_id, product_name, quantity, price, subtotal`
)

// PostgresStore persists orders and their items in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create writes the order and its items. It joins the caller's transaction
// when there is one.
func (s *PostgresStore) Create(ctx context.Context, o *models.Order) error {
	return s.inTx(ctx, func(q tx.Querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, o.ID, o.TenantID, o.CustomerID, o.OrderNumber, o.Status, o.TotalAmount, o.ShippingAddress, o.Notes,
			o.AssignedStaffID, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", postgres.Classify(err))
		}
		for _, item := range o.Items {
			_, err := q.ExecContext(ctx, `
				INSERT INTO order_items (`+itemColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, item.ID, o.ID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Subtotal())
			if err != nil {
				return fmt.Errorf("insert order item: %w", postgres.Classify(err))
			}
		}
		return nil
	})
}

func (s *PostgresStore) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order number: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, orderID id.OrderID) (*models.Order, error) {
	q := tx.Q(ctx, s.db)
	o, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND tenant_id = $2`, orderID, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if err := s.attachItems(ctx, q, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns the tenant's orders matching q, newest first, items included.
func (s *PostgresStore) List(ctx context.Context, tenantID id.TenantID, query models.Query) ([]*models.Order, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if query.CustomerID != nil {
		args = append(args, *query.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if query.StaffID != nil {
		args = append(args, *query.StaffID, models.StatusPending)
		where = append(where, fmt.Sprintf("(assigned_staff_id = $%d OR status = $%d)", len(args)-1, len(args)))
	}
	if query.Status != "" {
		args = append(args, query.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := tx.Q(ctx, s.db)
	rows, err := q.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	out := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if err := s.attachItems(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Execute locks the order row, applies mutate and writes back the mutable
// columns.
func (s *PostgresStore) Execute(ctx context.Context, tenantID id.TenantID, orderID id.OrderID, mutate func(*models.Order) error) (*models.Order, error) {
	var result *models.Order
	err := s.inTx(ctx, func(q tx.Querier) error {
		o, err := scanOrder(q.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, orderID, tenantID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if err := s.attachItems(ctx, q, []*models.Order{o}); err != nil {
			return err
		}
		if err := mutate(o); err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, `
			UPDATE orders
			SET status = $3, shipping_address = $4, notes = $5, assigned_staff_id = $6, updated_at = $7
			WHERE id = $1 AND tenant_id = $2
		`, o.ID, o.TenantID, o.Status, o.ShippingAddress, o.Notes, o.AssignedStaffID, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update order: %w", postgres.Classify(err))
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the order; its items cascade.
func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID, orderID id.OrderID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM orders WHERE id = $1 AND tenant_id = $2`, orderID, tenantID)
	if err != nil {
		return fmt.Errorf("delete order: %w", postgres.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IsProductReferenced(ctx context.Context, productID id.ProductID) (bool, error) {
	var exists bool
	err := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product references: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) DeleteByTenant(ctx context.Context, tenantID id.TenantID) error {
	if _, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM orders WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("delete tenant orders: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) attachItems(ctx context.Context, q tx.Querier, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[id.OrderID]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		o.Items = []models.Item{}
		byID[o.ID] = o
	}
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item     models.Item
			subtotal any
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &subtotal); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}
	return nil
}

// inTx runs fn on the caller's transaction, or on a new one it commits.
func (s *PostgresStore) inTx(ctx context.Context, fn func(q tx.Querier) error) error {
	if sqlTx, ok := tx.From(ctx); ok {
		return fn(sqlTx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	if err := fn(sqlTx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit order transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*models.Order, error) {
	var (
		o     models.Order
		staff id.NullUserID
	)
	if err := row.Scan(&o.ID, &o.TenantID, &o.CustomerID, &o.OrderNumber, &o.Status, &o.TotalAmount,
		&o.ShippingAddress, &o.Notes, &staff, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.AssignedStaffID = staff.Ptr()
	return &o, nil
}

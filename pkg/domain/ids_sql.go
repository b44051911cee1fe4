package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// database/sql support so stores can bind and scan typed IDs directly.

func (id TenantID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *TenantID) Scan(src any) error         { return (*uuid.UUID)(id).Scan(src) }

func (id UserID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *UserID) Scan(src any) error         { return (*uuid.UUID)(id).Scan(src) }

func (id ProductID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *ProductID) Scan(src any) error         { return (*uuid.UUID)(id).Scan(src) }

func (id OrderID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *OrderID) Scan(src any) error         { return (*uuid.UUID)(id).Scan(src) }

func (id OrderItemID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *OrderItemID) Scan(src any) error         { return (*uuid.UUID)(id).Scan(src) }

// NullUserID scans a nullable user reference such as created_by or
// assigned_staff_id.
type NullUserID struct {
	UserID UserID
	Valid  bool
}

func (n *NullUserID) Scan(src any) error {
	if src == nil {
		n.UserID, n.Valid = UserID{}, false
		return nil
	}
	n.Valid = true
	return n.UserID.Scan(src)
}

// Ptr returns nil for NULL.
func (n NullUserID) Ptr() *UserID {
	if !n.Valid {
		return nil
	}
	id := n.UserID
	return &id
}

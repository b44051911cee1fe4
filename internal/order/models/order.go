package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
)

// Status is an order's lifecycle state. Any status may follow any other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports delivered and cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ParseStatus rejects anything outside the six known statuses.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", dErrors.NewField(dErrors.CodeValidation, "status", "Invalid status")
	}
	return st, nil
}

// NewOrderNumber returns ORD- followed by 8 upper-case hex digits.
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Item is one order line. Price is the product price when the order was
// placed and never follows later product changes.
type Item struct {
	ID          id.OrderItemID
	OrderID     id.OrderID
	ProductID   id.ProductID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Line is a priced request line used to build an order.
type Line struct {
	ProductID   id.ProductID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// Order is the aggregate root for a customer purchase.
//
// Invariants:
//   - At least one item, each with Quantity >= 1
//   - TotalAmount equals the sum of item subtotals and is only set by NewOrder
//   - CustomerID and TenantID never change
type Order struct {
	ID              id.OrderID
	TenantID        id.TenantID
	CustomerID      id.UserID
	OrderNumber     string
	Status          Status
	TotalAmount     decimal.Decimal
	ShippingAddress string
	Notes           string
	AssignedStaffID *id.UserID
	Items           []Item
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewOrder(orderID id.OrderID, tenantID id.TenantID, customerID id.UserID, orderNumber, shippingAddress, notes string, lines []Line, now time.Time) (*Order, error) {
	if tenantID.IsNil() {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "tenant_id", "order must belong to a tenant")
	}
	if customerID.IsNil() {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "customer", "order must have a customer")
	}
	if orderNumber == "" {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "order_number", "order number cannot be empty")
	}
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "shipping_address", "shipping address cannot be empty")
	}
	if len(lines) == 0 {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "items", "order must contain at least one item")
	}

	o := &Order{
		ID:              orderID,
		TenantID:        tenantID,
		CustomerID:      customerID,
		OrderNumber:     orderNumber,
		Status:          StatusPending,
		TotalAmount:     decimal.Zero,
		ShippingAddress: shippingAddress,
		Notes:           strings.TrimSpace(notes),
		Items:           make([]Item, 0, len(lines)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "items", "quantity must be at least 1")
		}
		if !l.Price.IsPositive() {
			return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "items", "item price must be greater than zero")
		}
		item := Item{
			ID:          id.OrderItemID(uuid.New()),
			OrderID:     orderID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
		}
		o.Items = append(o.Items, item)
		o.TotalAmount = o.TotalAmount.Add(item.Subtotal())
	}
	return o, nil
}

func (o *Order) ItemsCount() int {
	return len(o.Items)
}

func (o *Order) SetStatus(s Status, now time.Time) error {
	if !s.Valid() {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "status", "Invalid status")
	}
	o.Status = s
	o.UpdatedAt = now
	return nil
}

func (o *Order) AssignStaff(staffID id.UserID, now time.Time) {
	o.AssignedStaffID = &staffID
	o.UpdatedAt = now
}

// OrderUpdate carries the writable fields of an order. Nil means unchanged.
type OrderUpdate struct {
	ShippingAddress *string
	Notes           *string
	Status          *Status
}

func (u OrderUpdate) Apply(o *Order, now time.Time) error {
	if u.ShippingAddress != nil {
		addr := strings.TrimSpace(*u.ShippingAddress)
		if addr == "" {
			return dErrors.NewField(dErrors.CodeInvariantViolation, "shipping_address", "shipping address cannot be empty")
		}
		o.ShippingAddress = addr
	}
	if u.Notes != nil {
		o.Notes = strings.TrimSpace(*u.Notes)
	}
	if u.Status != nil {
		if err := o.SetStatus(*u.Status, now); err != nil {
			return err
		}
	}
	o.UpdatedAt = now
	return nil
}

// Query selects orders within one tenant. A set CustomerID keeps only that
// customer's orders; a set StaffID keeps orders assigned to that staff member
// or still pending. Status, when non-empty, must match exactly.
type Query struct {
	CustomerID *id.UserID
	StaffID    *id.UserID
	Status     string
}

// Visible applies the customer and staff conditions, ignoring Status.
func (q Query) Visible(o *Order) bool {
	if q.CustomerID != nil && o.CustomerID != *q.CustomerID {
		return false
	}
	if q.StaffID != nil {
		assigned := o.AssignedStaffID != nil && *o.AssignedStaffID == *q.StaffID
		if !assigned && o.Status != StatusPending {
			return false
		}
	}
	return true
}

func (q Query) Matches(o *Order) bool {
	if q.Status != "" && string(o.Status) != q.Status {
		return false
	}
	return q.Visible(o)
}

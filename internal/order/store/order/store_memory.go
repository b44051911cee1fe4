package order

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storefront/internal/order/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/platform/tx"
)

// InMemory is a mutex-guarded order store for dev mode and tests. It never
// calls into other stores while holding its lock, so the product store may
// consult it from inside its own.
type InMemory struct {
	mu      sync.RWMutex
	orders  map[id.OrderID]*models.Order
	numbers map[string]id.OrderID
}

func NewInMemory() *InMemory {
	return &InMemory{
		orders:  make(map[id.OrderID]*models.Order),
		numbers: make(map[string]id.OrderID),
	}
}

// Create stores o. Under tx.LocalRunner a failed transaction removes it again.
func (s *InMemory) Create(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("%w: order id", sentinel.ErrAlreadyUsed)
	}
	if _, ok := s.numbers[o.OrderNumber]; ok {
		return fmt.Errorf("%w: order number", sentinel.ErrAlreadyUsed)
	}
	s.orders[o.ID] = clone(o)
	s.numbers[o.OrderNumber] = o.ID
	tx.OnRollback(ctx, func() { s.forget(o.ID) })
	return nil
}

func (s *InMemory) forget(orderID id.OrderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok {
		delete(s.numbers, o.OrderNumber)
		delete(s.orders, orderID)
	}
}

func (s *InMemory) NumberExists(_ context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.numbers[number]
	return ok, nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, orderID id.OrderID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return clone(o), nil
}

// List returns the tenant's orders matching q, newest first.
func (s *InMemory) List(_ context.Context, tenantID id.TenantID, q models.Query) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Order{}
	for _, o := range s.orders {
		if o.TenantID == tenantID && q.Matches(o) {
			out = append(out, clone(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Execute applies mutate to a copy and stores it only if mutate succeeds.
// Items and identity fields are never written back.
func (s *InMemory) Execute(_ context.Context, tenantID id.TenantID, orderID id.OrderID, mutate func(*models.Order) error) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orders[orderID]
	if !ok || current.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	working := clone(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	stored := clone(current)
	stored.Status = working.Status
	stored.ShippingAddress = working.ShippingAddress
	stored.Notes = working.Notes
	stored.AssignedStaffID = working.AssignedStaffID
	stored.UpdatedAt = working.UpdatedAt
	s.orders[orderID] = stored
	return clone(stored), nil
}

func (s *InMemory) Delete(_ context.Context, tenantID id.TenantID, orderID id.OrderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return sentinel.ErrNotFound
	}
	delete(s.numbers, o.OrderNumber)
	delete(s.orders, orderID)
	return nil
}

// IsProductReferenced reports whether any order line points at productID.
func (s *InMemory) IsProductReferenced(_ context.Context, productID id.ProductID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *InMemory) DeleteByTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for oid, o := range s.orders {
		if o.TenantID == tenantID {
			delete(s.numbers, o.OrderNumber)
			delete(s.orders, oid)
		}
	}
	return nil
}

// Count returns the number of stored orders across all tenants.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func clone(o *models.Order) *models.Order {
	c := *o
	if o.AssignedStaffID != nil {
		staff := *o.AssignedStaffID
		c.AssignedStaffID = &staff
	}
	c.Items = append([]models.Item(nil), o.Items...)
	return &c
}

package product

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storefront/internal/catalog/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/platform/tx"
)

// ReferenceChecker reports whether any order line still points at a product.
type ReferenceChecker interface {
	IsProductReferenced(ctx context.Context, productID id.ProductID) (bool, error)
}

// InMemory is a mutex-guarded product store for dev mode and tests. Under
// tx.LocalRunner, DecrementStock registers an undo so a failed transaction
// restores stock.
type InMemory struct {
	mu       sync.RWMutex
	products map[id.ProductID]*models.Product
	refs     ReferenceChecker
}

type Option func(*InMemory)

// WithReferenceCheck makes Delete refuse products that orders still reference.
func WithReferenceCheck(refs ReferenceChecker) Option {
	return func(s *InMemory) {
		s.refs = refs
	}
}

func NewInMemory(opts ...Option) *InMemory {
	s := &InMemory{products: make(map[id.ProductID]*models.Product)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetReferenceChecker wires the checker after construction, for stores that
// depend on each other.
func (s *InMemory) SetReferenceChecker(refs ReferenceChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = refs
}

func (s *InMemory) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; ok {
		return fmt.Errorf("%w: product id", sentinel.ErrAlreadyUsed)
	}
	s.products[p.ID] = clone(p)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, productID id.ProductID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

// List returns the tenant's products matching f, newest first.
func (s *InMemory) List(_ context.Context, tenantID id.TenantID, f models.Filter) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Product{}
	for _, p := range s.products {
		if p.TenantID == tenantID && f.Matches(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Categories returns the tenant's distinct categories, sorted.
func (s *InMemory) Categories(_ context.Context, tenantID id.TenantID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, p := range s.products {
		if p.TenantID == tenantID {
			seen[p.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Execute applies mutate to a copy and stores it only if mutate succeeds.
func (s *InMemory) Execute(_ context.Context, tenantID id.TenantID, productID id.ProductID, mutate func(*models.Product) error) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.products[productID]
	if !ok || current.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	working := clone(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.products[productID] = working
	return clone(working), nil
}

func (s *InMemory) Delete(ctx context.Context, tenantID id.TenantID, productID id.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || p.TenantID != tenantID {
		return sentinel.ErrNotFound
	}
	if s.refs != nil {
		referenced, err := s.refs.IsProductReferenced(ctx, productID)
		if err != nil {
			return fmt.Errorf("check product references: %w", err)
		}
		if referenced {
			return fmt.Errorf("%w: product is referenced by orders", sentinel.ErrConflict)
		}
	}
	delete(s.products, productID)
	return nil
}

// LockForOrder returns the tenant's products among productIDs, ordered by id.
// The caller's LocalRunner provides the exclusion.
func (s *InMemory) LockForOrder(_ context.Context, tenantID id.TenantID, productIDs []id.ProductID) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Product, 0, len(productIDs))
	for _, pid := range productIDs {
		if p, ok := s.products[pid]; ok && p.TenantID == tenantID {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// DecrementStock lowers stock by qty, failing with ErrInsufficientStock
// rather than going negative.
func (s *InMemory) DecrementStock(ctx context.Context, tenantID id.TenantID, productID id.ProductID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || p.TenantID != tenantID {
		return sentinel.ErrNotFound
	}
	working := clone(p)
	if err := working.DecrementStock(qty); err != nil {
		return err
	}
	s.products[productID] = working
	tx.OnRollback(ctx, func() { s.restoreStock(productID, qty) })
	return nil
}

func (s *InMemory) restoreStock(productID id.ProductID, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		working := clone(p)
		working.Stock += qty
		s.products[productID] = working
	}
}

func (s *InMemory) DeleteByTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pid, p := range s.products {
		if p.TenantID == tenantID {
			delete(s.products, pid)
		}
	}
	return nil
}

func clone(p *models.Product) *models.Product {
	c := *p
	if p.CreatedBy != nil {
		u := *p.CreatedBy
		c.CreatedBy = &u
	}
	return &c
}

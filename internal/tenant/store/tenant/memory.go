package tenant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"storefront/internal/tenant/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded tenant store for dev mode and tests.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
}

func NewInMemory() *InMemory {
	return &InMemory{tenants: make(map[id.TenantID]*models.Tenant)}
}

// Create inserts t unless its name, subdomain or domain is taken.
func (s *InMemory) Create(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUniqueLocked(t); err != nil {
		return err
	}
	s.tenants[t.ID] = clone(t)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(t), nil
}

func (s *InMemory) FindActiveByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	t, err := s.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, sentinel.ErrNotFound
	}
	return t, nil
}

func (s *InMemory) FindActiveBySubdomain(_ context.Context, subdomain string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.Subdomain == subdomain && t.IsActive() {
			return clone(t), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns every tenant, newest first.
func (s *InMemory) List(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, clone(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Execute runs validate then mutate on a copy of the tenant under the store
// lock and persists the result only if both succeed.
func (s *InMemory) Execute(_ context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant) error) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(current)
	if err := validate(working); err != nil {
		return nil, err
	}
	if err := mutate(working); err != nil {
		return nil, err
	}
	if err := s.checkUniqueLocked(working); err != nil {
		return nil, err
	}
	s.tenants[tenantID] = working
	return clone(working), nil
}

func (s *InMemory) Delete(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[tenantID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.tenants, tenantID)
	return nil
}

func (s *InMemory) checkUniqueLocked(t *models.Tenant) error {
	for _, existing := range s.tenants {
		if existing.ID == t.ID {
			continue
		}
		switch {
		case strings.EqualFold(existing.Name, t.Name):
			return fmt.Errorf("%w: tenant name", sentinel.ErrAlreadyUsed)
		case existing.Subdomain == t.Subdomain:
			return fmt.Errorf("%w: subdomain", sentinel.ErrAlreadyUsed)
		case existing.Domain != nil && t.Domain != nil && *existing.Domain == *t.Domain:
			return fmt.Errorf("%w: domain", sentinel.ErrAlreadyUsed)
		}
	}
	return nil
}

func clone(t *models.Tenant) *models.Tenant {
	c := *t
	if t.Domain != nil {
		d := *t.Domain
		c.Domain = &d
	}
	return &c
}

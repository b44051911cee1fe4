package cache

import (
	"context"
	"sync"
	"time"

	id "storefront/pkg/domain"
)

type cachedCategories struct {
	categories []string
	expiresAt  time.Time
}

// InMemory is a process-local Backend with TTL expiration.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.TenantID]cachedCategories
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.TenantID]cachedCategories), now: time.Now}
}

func (m *InMemory) Get(_ context.Context, tenantID id.TenantID) ([]string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[tenantID]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return append([]string(nil), e.categories...), true, nil
}

func (m *InMemory) Set(_ context.Context, tenantID id.TenantID, categories []string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tenantID] = cachedCategories{
		categories: append([]string(nil), categories...),
		expiresAt:  m.now().Add(ttl),
	}
	return nil
}

func (m *InMemory) Delete(_ context.Context, tenantID id.TenantID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tenantID)
	return nil
}

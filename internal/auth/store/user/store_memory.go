package user

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storefront/internal/auth/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
)

// InMemoryUserStore is a thread-safe in-memory user store for dev mode and
// tests.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[id.UserID]*models.User)}
}

// Create inserts u unless its username is taken within the tenant.
func (s *InMemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("%w: user id", sentinel.ErrAlreadyUsed)
	}
	for _, existing := range s.users {
		if existing.TenantID == u.TenantID && existing.Username == u.Username {
			return fmt.Errorf("%w: username", sentinel.ErrAlreadyUsed)
		}
	}
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *u
	return &c, nil
}

// FindByTenantAndID returns the user only when it belongs to tenantID.
func (s *InMemoryUserStore) FindByTenantAndID(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*models.User, error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return u, nil
}

func (s *InMemoryUserStore) FindByTenantAndUsername(_ context.Context, tenantID id.TenantID, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindByUsername returns every user with the given username across tenants,
// oldest first.
func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, u := range s.users {
		if u.Username == username {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// FindByIDs returns the known users among userIDs. Unknown ids are skipped.
func (s *InMemoryUserStore) FindByIDs(_ context.Context, userIDs []id.UserID) (map[id.UserID]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.UserID]*models.User, len(userIDs))
	for _, uid := range userIDs {
		if u, ok := s.users[uid]; ok {
			c := *u
			out[uid] = &c
		}
	}
	return out, nil
}

func (s *InMemoryUserStore) CountByTenant(_ context.Context, tenantID id.TenantID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

// DeleteByTenant removes every user of the tenant.
func (s *InMemoryUserStore) DeleteByTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uid, u := range s.users {
		if u.TenantID == tenantID {
			delete(s.users, uid)
		}
	}
	return nil
}

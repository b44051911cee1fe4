package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"storefront/internal/auth/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store  *InMemoryUserStore
	tenant id.TenantID
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = New()
	s.tenant = id.TenantID(uuid.New())
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) newUser(tenantID id.TenantID, username string, created time.Time) *models.User {
	u, err := models.NewUser(id.UserID(uuid.New()), tenantID, username, id.RoleCustomer, "hash",
		models.Profile{FirstName: "Jane", LastName: "Doe"}, created)
	s.Require().NoError(err)
	return u
}

func (s *InMemoryUserStoreSuite) TestCreate() {
	ctx := context.Background()
	u := s.newUser(s.tenant, "jane", time.Now())
	s.Require().NoError(s.store.Create(ctx, u))

	s.Run("rejects duplicate username in the same tenant", func() {
		err := s.store.Create(ctx, s.newUser(s.tenant, "jane", time.Now()))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("allows the same username in another tenant", func() {
		s.NoError(s.store.Create(ctx, s.newUser(id.TenantID(uuid.New()), "jane", time.Now())))
	})

	s.Run("stores a copy", func() {
		u.Username = "mutated"
		found, err := s.store.FindByID(ctx, u.ID)
		s.Require().NoError(err)
		s.Equal("jane", found.Username)
	})
}

func (s *InMemoryUserStoreSuite) TestLookups() {
	ctx := context.Background()
	now := time.Now()
	other := id.TenantID(uuid.New())
	first := s.newUser(other, "sam", now.Add(-time.Hour))
	second := s.newUser(s.tenant, "sam", now)
	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.Create(ctx, first))

	s.Run("by tenant and username", func() {
		found, err := s.store.FindByTenantAndUsername(ctx, s.tenant, "sam")
		s.Require().NoError(err)
		s.Equal(second.ID, found.ID)

		_, err = s.store.FindByTenantAndUsername(ctx, s.tenant, "nobody")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("by tenant and id hides other tenants", func() {
		_, err := s.store.FindByTenantAndID(ctx, s.tenant, first.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("by username across tenants, oldest first", func() {
		found, err := s.store.FindByUsername(ctx, "sam")
		s.Require().NoError(err)
		s.Require().Len(found, 2)
		s.Equal(first.ID, found[0].ID)
	})

	s.Run("by ids skips unknown", func() {
		found, err := s.store.FindByIDs(ctx, []id.UserID{first.ID, id.UserID(uuid.New())})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal("Jane Doe", found[first.ID].DisplayName())
	})
}

func (s *InMemoryUserStoreSuite) TestDeleteByTenant() {
	ctx := context.Background()
	keep := s.newUser(id.TenantID(uuid.New()), "keep", time.Now())
	s.Require().NoError(s.store.Create(ctx, keep))
	s.Require().NoError(s.store.Create(ctx, s.newUser(s.tenant, "gone", time.Now())))

	s.Require().NoError(s.store.DeleteByTenant(ctx, s.tenant))

	n, err := s.store.CountByTenant(ctx, s.tenant)
	s.Require().NoError(err)
	s.Zero(n)
	_, err = s.store.FindByID(ctx, keep.ID)
	s.NoError(err)
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	tenantmetrics "storefront/internal/tenant/metrics"
	"storefront/internal/tenant/models"
	tenantstore "storefront/internal/tenant/store/tenant"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/audit/publisher"
	auditmemory "storefront/pkg/platform/audit/store/memory"
	"storefront/pkg/requestcontext"
	"storefront/pkg/testutil"
)

type recordingPurger struct {
	purged []id.TenantID
	err    error
}

func (p *recordingPurger) DeleteByTenant(_ context.Context, tenantID id.TenantID) error {
	p.purged = append(p.purged, tenantID)
	return p.err
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *tenantstore.InMemory
	audit   *auditmemory.InMemoryStore
	metrics *tenantmetrics.Metrics
	purger  *recordingPurger
	service *Service

	super requestcontext.Principal
	acme  *models.Tenant
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.store = tenantstore.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()
	s.metrics = tenantmetrics.New(prometheus.NewRegistry())
	s.purger = &recordingPurger{}
	s.service = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
		WithMetrics(s.metrics),
		WithPurgers(s.purger),
	)

	s.super = testutil.NewPrincipal(id.TenantID(uuid.New()), id.RoleStoreOwner)
	s.super.Superuser = true

	var err error
	s.acme, err = s.service.Create(s.ctx, s.super, CreateInput{Name: "Acme", StoreName: "Acme Store", Subdomain: "acme"})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCreate() {
	s.Run("superuser creates an active tenant", func() {
		domain := "shop.globex.com"
		t, err := s.service.Create(s.ctx, s.super, CreateInput{
			Name:         "Globex",
			StoreName:    "Globex Store",
			Subdomain:    "Globex",
			ContactEmail: "ops@globex.com",
			Domain:       &domain,
		})
		s.Require().NoError(err)
		s.Equal("globex", t.Subdomain)
		s.True(t.IsActive())
		s.Equal(2.0, promtest.ToFloat64(s.metrics.TenantCreated))

		events, err := s.audit.ListByTenant(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventTenantCreated), events[0].Action)
	})

	s.Run("store owner cannot create tenants", func() {
		owner := testutil.NewPrincipal(s.acme.ID, id.RoleStoreOwner)
		_, err := s.service.Create(s.ctx, owner, CreateInput{Name: "Initech", StoreName: "Initech", Subdomain: "initech"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("duplicate name differing only in case conflicts", func() {
		_, err := s.service.Create(s.ctx, s.super, CreateInput{Name: "ACME", StoreName: "Other", Subdomain: "acme2"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("invalid subdomain is a field validation error", func() {
		_, err := s.service.Create(s.ctx, s.super, CreateInput{Name: "Bad", StoreName: "Bad", Subdomain: "not a label"})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Equal("subdomain", de.Field)
	})
}

func (s *ServiceSuite) TestVisibility() {
	other, err := s.service.Create(s.ctx, s.super, CreateInput{Name: "Globex", StoreName: "Globex", Subdomain: "globex"})
	s.Require().NoError(err)
	staff := testutil.NewPrincipal(s.acme.ID, id.RoleStaff)

	s.Run("superuser lists every tenant newest first", func() {
		tenants, err := s.service.List(s.ctx, s.super)
		s.Require().NoError(err)
		s.Require().Len(tenants, 2)
	})

	s.Run("tenant user lists only their own tenant", func() {
		tenants, err := s.service.List(s.ctx, staff)
		s.Require().NoError(err)
		s.Require().Len(tenants, 1)
		s.Equal(s.acme.ID, tenants[0].ID)
	})

	s.Run("another tenant reads as not found", func() {
		_, err := s.service.Get(s.ctx, staff, other.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("own tenant is readable", func() {
		t, err := s.service.Get(s.ctx, staff, s.acme.ID)
		s.Require().NoError(err)
		s.Equal("Acme", t.Name)
	})
}

func (s *ServiceSuite) TestUpdate() {
	owner := testutil.NewPrincipal(s.acme.ID, id.RoleStoreOwner)
	staff := testutil.NewPrincipal(s.acme.ID, id.RoleStaff)
	rename := "Acme Widgets"

	s.Run("store owner updates own tenant", func() {
		t, err := s.service.Update(s.ctx, owner, s.acme.ID, models.TenantUpdate{StoreName: &rename})
		s.Require().NoError(err)
		s.Equal(rename, t.StoreName)
		s.Equal("Acme", t.Name)
	})

	s.Run("staff cannot update", func() {
		_, err := s.service.Update(s.ctx, staff, s.acme.ID, models.TenantUpdate{StoreName: &rename})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner of another tenant sees not found before forbidden", func() {
		stranger := testutil.NewPrincipal(id.TenantID(uuid.New()), id.RoleStoreOwner)
		_, err := s.service.Update(s.ctx, stranger, s.acme.ID, models.TenantUpdate{StoreName: &rename})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("invalid update leaves the tenant unchanged", func() {
		empty := ""
		_, err := s.service.Update(s.ctx, owner, s.acme.ID, models.TenantUpdate{Name: &empty})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		t, err := s.service.Get(s.ctx, owner, s.acme.ID)
		s.Require().NoError(err)
		s.Equal("Acme", t.Name)
	})

	s.Run("deactivation is persisted", func() {
		inactive := false
		t, err := s.service.Update(s.ctx, s.super, s.acme.ID, models.TenantUpdate{IsActive: &inactive})
		s.Require().NoError(err)
		s.False(t.IsActive())
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("store owner cannot delete", func() {
		owner := testutil.NewPrincipal(s.acme.ID, id.RoleStoreOwner)
		err := s.service.Delete(s.ctx, owner, s.acme.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("superuser delete purges tenant data", func() {
		s.Require().NoError(s.service.Delete(s.ctx, s.super, s.acme.ID))
		s.Equal([]id.TenantID{s.acme.ID}, s.purger.purged)
		s.Equal(1.0, promtest.ToFloat64(s.metrics.TenantDeleted))

		_, err := s.service.Get(s.ctx, s.super, s.acme.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing tenant is not found", func() {
		err := s.service.Delete(s.ctx, s.super, id.TenantID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDeletePurgeFailure() {
	s.purger.err = errors.New("disk full")

	err := s.service.Delete(s.ctx, s.super, s.acme.ID)

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

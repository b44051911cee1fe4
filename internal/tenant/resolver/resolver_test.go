package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	tenantmetrics "storefront/internal/tenant/metrics"
	"storefront/internal/tenant/models"
	tenantstore "storefront/internal/tenant/store/tenant"
	id "storefront/pkg/domain"
)

type ResolverSuite struct {
	suite.Suite
	store    *tenantstore.InMemory
	metrics  *tenantmetrics.Metrics
	resolver *Resolver
	ctx      context.Context

	acme     *models.Tenant
	globex   *models.Tenant
	inactive *models.Tenant
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = tenantstore.NewInMemory()
	s.metrics = tenantmetrics.New(prometheus.NewRegistry())
	s.resolver = New(s.store,
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	s.acme = s.create("Acme", "acme", true)
	s.globex = s.create("Globex", "globex", true)
	s.inactive = s.create("Closed", "closed", false)
}

func (s *ResolverSuite) create(name, subdomain string, active bool) *models.Tenant {
	t, err := models.NewTenant(id.TenantID(uuid.New()), name, name, subdomain, time.Now())
	s.Require().NoError(err)
	if !active {
		t.Status = models.TenantStatusInactive
	}
	s.Require().NoError(s.store.Create(s.ctx, t))
	return t
}

func (s *ResolverSuite) TestHeaderWins() {
	got := s.resolver.Resolve(s.ctx, s.globex.ID.String(), "acme.shop.test")
	s.Require().NotNil(got)
	s.Equal(s.globex.ID, got.ID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Resolutions.WithLabelValues(tenantmetrics.OutcomeHeader)))
}

func (s *ResolverSuite) TestUnknownHeaderDoesNotFallBackToSubdomain() {
	s.Nil(s.resolver.Resolve(s.ctx, uuid.NewString(), "acme.shop.test"))
	s.Nil(s.resolver.Resolve(s.ctx, "not-a-uuid", "acme.shop.test"))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Resolutions.WithLabelValues(tenantmetrics.OutcomeMiss)))
}

func (s *ResolverSuite) TestSubdomain() {
	got := s.resolver.Resolve(s.ctx, "", "ACME.shop.test:8443")
	s.Require().NotNil(got)
	s.Equal(s.acme.ID, got.ID)
	s.Equal("acme", got.Subdomain)
}

func (s *ResolverSuite) TestInactiveTenantResolvesToNone() {
	s.Nil(s.resolver.Resolve(s.ctx, s.inactive.ID.String(), ""))
	s.Nil(s.resolver.Resolve(s.ctx, "", "closed.shop.test"))
}

func (s *ResolverSuite) TestHostWithoutDot() {
	s.Nil(s.resolver.Resolve(s.ctx, "", "localhost:8000"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Resolutions.WithLabelValues(tenantmetrics.OutcomeNone)))
}

func (s *ResolverSuite) TestLookupErrorDegradesToNone() {
	r := New(failingLookup{}, WithMetrics(s.metrics), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Nil(r.Resolve(s.ctx, "", "acme.shop.test"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Resolutions.WithLabelValues(tenantmetrics.OutcomeError)))
}

func (s *ResolverSuite) TestSubdomainParsing() {
	cases := []struct {
		host string
		want string
		ok   bool
	}{
		{"acme.example.com", "acme", true},
		{"acme.example.com:8080", "acme", true},
		{"localhost", "", false},
		{"localhost:8000", "", false},
		{"[::1]:8080", "", false},
		{".example.com", "", false},
	}
	for _, tc := range cases {
		got, ok := Subdomain(tc.host)
		s.Equal(tc.ok, ok, tc.host)
		s.Equal(tc.want, got, tc.host)
	}
}

type failingLookup struct{}

func (failingLookup) FindActiveByID(context.Context, id.TenantID) (*models.Tenant, error) {
	return nil, errors.New("connection refused")
}

func (failingLookup) FindActiveBySubdomain(context.Context, string) (*models.Tenant, error) {
	return nil, errors.New("connection refused")
}

package authz

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	id "storefront/pkg/domain"
	"storefront/pkg/testutil"
)

func newGuarded(metrics *Metrics, preds ...Predicate) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return Require(logger, metrics, preds...)(ok)
}

func TestRequire(t *testing.T) {
	tenantA := id.TenantID(uuid.New())
	tenantB := id.TenantID(uuid.New())

	t.Run("passes when every check allows", func(t *testing.T) {
		h := newGuarded(NewMetrics(prometheus.NewRegistry()), TenantUser, StoreOwnerOnly)
		req := testutil.WithAuth(httptest.NewRequest(http.MethodPost, "/products/", nil), testutil.NewPrincipal(tenantA, id.RoleStoreOwner))

		rr := testutil.DoRequest(h, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("anonymous caller gets 401", func(t *testing.T) {
		h := newGuarded(NewMetrics(prometheus.NewRegistry()), TenantUser)

		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/orders/", nil))

		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("anonymous safe read passes read-only check", func(t *testing.T) {
		h := newGuarded(NewMetrics(prometheus.NewRegistry()), StaffOrReadOnly)

		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/products/", nil))

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("cross-tenant caller gets generic 403 and is counted", func(t *testing.T) {
		m := NewMetrics(prometheus.NewRegistry())
		h := newGuarded(m, TenantUser, StoreOwnerOrStaff)
		req := testutil.WithPrincipal(httptest.NewRequest(http.MethodGet, "/orders/", nil), testutil.NewPrincipal(tenantA, id.RoleStaff))
		req = testutil.WithTenant(req, tenantB)

		rr := testutil.DoRequest(h, req)

		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
		testutil.AssertJSONContains(t, rr, "error_description", DeniedMessage)
		assert.Equal(t, 1.0, promtest.ToFloat64(m.Denials.WithLabelValues(TenantUser.Name)))
		assert.Equal(t, 0.0, promtest.ToFloat64(m.Denials.WithLabelValues(StoreOwnerOrStaff.Name)))
	})

	t.Run("customer write on read-only route gets 403", func(t *testing.T) {
		m := NewMetrics(prometheus.NewRegistry())
		h := newGuarded(m, StaffOrReadOnly)
		req := testutil.WithAuth(httptest.NewRequest(http.MethodPost, "/products/", nil), testutil.NewPrincipal(tenantA, id.RoleCustomer))

		rr := testutil.DoRequest(h, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, 1.0, promtest.ToFloat64(m.Denials.WithLabelValues(StaffOrReadOnly.Name)))
	})

	t.Run("nil metrics is tolerated", func(t *testing.T) {
		h := newGuarded(nil, StoreOwnerOnly)
		req := testutil.WithAuth(httptest.NewRequest(http.MethodDelete, "/products/x", nil), testutil.NewPrincipal(tenantA, id.RoleStaff))

		rr := testutil.DoRequest(h, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	OutcomeHeader    = "header"
	OutcomeSubdomain = "subdomain"
	OutcomeNone      = "none"
	OutcomeMiss      = "miss"
	OutcomeError     = "error"
)

// Metrics provides observability for the tenant module.
type Metrics struct {
	TenantCreated prometheus.Counter
	TenantDeleted prometheus.Counter
	Resolutions   *prometheus.CounterVec
}

// New creates a new Metrics instance with all tenant module metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TenantCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		TenantDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_tenants_deleted_total",
			Help: "Total number of tenants deleted",
		}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_tenant_resolutions_total",
			Help: "Tenant resolution outcomes per request (header, subdomain, none, miss, error)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementTenantCreated() {
	m.TenantCreated.Inc()
}

func (m *Metrics) IncrementTenantDeleted() {
	m.TenantDeleted.Inc()
}

func (m *Metrics) ObserveResolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()
}

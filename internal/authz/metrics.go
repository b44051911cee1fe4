package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts authorization denials by the predicate that rejected.
type Metrics struct {
	Denials *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Denials: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_authz_denials_total",
			Help: "Requests denied by an authorization check, by check name",
		}, []string{"check"}),
	}
}

func (m *Metrics) IncrementDenied(check string) {
	if m == nil {
		return
	}
	m.Denials.WithLabelValues(check).Inc()
}

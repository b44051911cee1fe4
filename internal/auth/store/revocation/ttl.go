package revocation

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storefront/pkg/platform/sentinel"
)

// Clock returns the current time.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// Metrics observes revocation check latency.
type Metrics struct {
	CheckDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CheckDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_is_token_revoked_duration_ms",
			Help:    "Latency of token revocation checks in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}
}

func (m *Metrics) observe(start time.Time) {
	if m == nil {
		return
	}
	m.CheckDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics provides observability for the catalog module.
type Metrics struct {
	ProductsCreated prometheus.Counter
	CategoryCache   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProductsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_products_created_total",
			Help: "Total number of products created",
		}),
		CategoryCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_category_cache_lookups_total",
			Help: "Category cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementProductsCreated() {
	if m == nil {
		return
	}
	m.ProductsCreated.Inc()
}

func (m *Metrics) ObserveCategoryLookup(result string) {
	if m == nil {
		return
	}
	m.CategoryCache.WithLabelValues(result).Inc()
}

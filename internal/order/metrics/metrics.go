package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the order engine.
type Metrics struct {
	OrdersCreated   prometheus.Counter
	CreateDuration  prometheus.Histogram
	StockRejections prometheus.Counter
	StatusChanges   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders committed",
		}),
		CreateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_order_create_duration_seconds",
			Help:    "Latency of the order creation transaction, including failed attempts",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		StockRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_order_stock_rejections_total",
			Help: "Orders rejected for insufficient stock",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_status_changes_total",
			Help: "Order status updates by target status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementOrdersCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

func (m *Metrics) ObserveCreateDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.CreateDuration.Observe(d.Seconds())
}

func (m *Metrics) IncrementStockRejections() {
	if m == nil {
		return
	}
	m.StockRejections.Inc()
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(status).Inc()
}

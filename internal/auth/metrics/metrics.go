package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	LoginSucceeded = "succeeded"
	LoginFailed    = "failed"
)

// Metrics provides observability for registration, login and token refresh.
type Metrics struct {
	UsersRegistered *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	TokenRefreshes  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_users_registered_total",
			Help: "Total number of users registered, by role",
		}, []string{"role"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		TokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_token_refreshes_total",
			Help: "Total number of successful refresh token rotations",
		}),
	}
}

func (m *Metrics) IncrementUsersRegistered(role string) {
	if m == nil {
		return
	}
	m.UsersRegistered.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementTokenRefreshes() {
	if m == nil {
		return
	}
	m.TokenRefreshes.Inc()
}

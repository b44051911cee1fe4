// Package httptransport assembles the HTTP surface: the global middleware
// chain, operator endpoints and every module's routes behind the right gates.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/authz"
	"storefront/internal/platform/metrics"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/platform/middleware/admin"
	authmw "storefront/pkg/platform/middleware/auth"
	"storefront/pkg/platform/middleware/metadata"
	"storefront/pkg/platform/middleware/request"
	"storefront/pkg/platform/middleware/requesttime"
	tenantmw "storefront/pkg/platform/middleware/tenant"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Handlers groups the module handlers by the gate they sit behind.
type Handlers struct {
	Auth    Registrar
	Tenants Registrar
	Catalog Registrar
	Orders  Registrar
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger       *slog.Logger
	Resolver     tenantmw.Resolver
	Tokens       authmw.TokenValidator
	Revocations  authmw.TokenRevocationChecker
	HTTPMetrics  *metrics.Metrics
	AuthzMetrics *authz.Metrics
	Gatherer     prometheus.Gatherer
	AdminToken   string
	HealthChecks map[string]HealthCheck
}

// NewRouter wires all public endpoints.
//
// Every request gets a request id, a fixed request time, client metadata,
// panic recovery, access logging, HTTP metrics and tenant resolution. Auth
// routes are public; tenant routes need a bearer token; catalog and order
// routes also need the caller to belong to the resolved tenant.
func NewRouter(cfg Config, h Handlers) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(logger))
	r.Use(request.Logger(logger))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Instrument)
	}
	r.Use(tenantmw.Middleware(cfg.Resolver))

	r.Get("/healthz", healthHandler(logger, cfg.HealthChecks))
	if cfg.Gatherer != nil {
		r.With(admin.RequireAdminToken(cfg.AdminToken, logger)).
			Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	if h.Auth != nil {
		h.Auth.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Tokens, cfg.Revocations, logger))
		if h.Tenants != nil {
			h.Tenants.Register(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(authz.Require(logger, cfg.AuthzMetrics, authz.All(authz.TenantUser, authz.StaffOrReadOnly)...))
			if h.Catalog != nil {
				h.Catalog.Register(r)
			}
		})
		r.Group(func(r chi.Router) {
			r.Use(authz.Require(logger, cfg.AuthzMetrics, authz.TenantUser))
			if h.Orders != nil {
				h.Orders.Register(r)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Not found."))
	})
	return r
}

func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"dependency", name,
					"error", err,
				)
				status[name] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httputil.WriteJSON(w, code, status)
	}
}

// Package resolver decides which tenant a request belongs to.
//
// Priority:
//  1. A non-empty X-Tenant-ID header names the tenant by id. An unparseable or
//     unknown id yields no tenant; the subdomain is not consulted.
//  2. Otherwise a host with a dot resolves its leftmost label as a subdomain.
//  3. Otherwise no tenant.
//
// Only active tenants resolve. Lookup failures are logged and degrade to no
// tenant so tenant-agnostic routes keep working.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"

	tenantmetrics "storefront/internal/tenant/metrics"
	"storefront/internal/tenant/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

// TenantLookup is the read side of the tenant store the resolver needs.
type TenantLookup interface {
	FindActiveByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindActiveBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
}

type Resolver struct {
	tenants TenantLookup
	logger  *slog.Logger
	metrics *tenantmetrics.Metrics
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func New(tenants TenantLookup, opts ...Option) *Resolver {
	r := &Resolver{tenants: tenants, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never returns an error; nil means no tenant.
func (r *Resolver) Resolve(ctx context.Context, headerValue, host string) *requestcontext.Tenant {
	if headerValue = strings.TrimSpace(headerValue); headerValue != "" {
		tenantID, err := id.ParseTenantID(headerValue)
		if err != nil {
			r.observe(tenantmetrics.OutcomeMiss)
			return nil
		}
		t, err := r.tenants.FindActiveByID(ctx, tenantID)
		return r.finish(ctx, t, err, tenantmetrics.OutcomeHeader, "tenant_id", headerValue)
	}

	subdomain, ok := Subdomain(host)
	if !ok {
		r.observe(tenantmetrics.OutcomeNone)
		return nil
	}
	t, err := r.tenants.FindActiveBySubdomain(ctx, subdomain)
	return r.finish(ctx, t, err, tenantmetrics.OutcomeSubdomain, "subdomain", subdomain)
}

func (r *Resolver) finish(ctx context.Context, t *models.Tenant, err error, outcome, key, value string) *requestcontext.Tenant {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			r.observe(tenantmetrics.OutcomeMiss)
			return nil
		}
		r.logger.WarnContext(ctx, "tenant lookup failed",
			key, value,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		r.observe(tenantmetrics.OutcomeError)
		return nil
	}
	r.observe(outcome)
	return &requestcontext.Tenant{
		ID:        t.ID,
		Name:      t.Name,
		StoreName: t.StoreName,
		Subdomain: t.Subdomain,
	}
}

func (r *Resolver) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.ObserveResolution(outcome)
	}
}

// Subdomain returns the leftmost label of host (port stripped) when the host
// contains a dot. Labels are lower-cased.
func Subdomain(host string) (string, bool) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host, "]") {
		host = host[:i]
	}
	if !strings.Contains(host, ".") {
		return "", false
	}
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "", false
	}
	return strings.ToLower(label), true
}

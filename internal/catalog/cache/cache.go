// Package cache keeps each tenant's product category list close at hand.
// Lists are loaded once per TTL and dropped on any product write in the
// tenant.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	catalogmetrics "storefront/internal/catalog/metrics"
	id "storefront/pkg/domain"
)

const DefaultTTL = 5 * time.Minute

// Backend stores category lists by tenant. Get reports a miss with ok=false.
type Backend interface {
	Get(ctx context.Context, tenantID id.TenantID) (categories []string, ok bool, err error)
	Set(ctx context.Context, tenantID id.TenantID, categories []string, ttl time.Duration) error
	Delete(ctx context.Context, tenantID id.TenantID) error
}

// LoadFunc reads the authoritative category list.
type LoadFunc func(ctx context.Context, tenantID id.TenantID) ([]string, error)

// Categories is a read-through cache. Concurrent misses for one tenant share a
// single load.
type Categories struct {
	backend Backend
	load    LoadFunc
	ttl     time.Duration
	group   singleflight.Group
	metrics *catalogmetrics.Metrics
	logger  *slog.Logger
}

type Option func(*Categories)

func WithTTL(ttl time.Duration) Option {
	return func(c *Categories) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(c *Categories) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Categories) {
		c.logger = logger
	}
}

func NewCategories(backend Backend, load LoadFunc, opts ...Option) *Categories {
	c := &Categories{backend: backend, load: load, ttl: DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached list, loading it on a miss. Backend failures fall
// through to the loader.
func (c *Categories) Get(ctx context.Context, tenantID id.TenantID) ([]string, error) {
	cached, ok, err := c.backend.Get(ctx, tenantID)
	switch {
	case err != nil:
		c.metrics.ObserveCategoryLookup(catalogmetrics.CacheError)
		c.logger.WarnContext(ctx, "category cache read failed", "tenant_id", tenantID.String(), "error", err)
	case ok:
		c.metrics.ObserveCategoryLookup(catalogmetrics.CacheHit)
		return cached, nil
	default:
		c.metrics.ObserveCategoryLookup(catalogmetrics.CacheMiss)
	}

	v, err, _ := c.group.Do(tenantID.String(), func() (any, error) {
		categories, err := c.load(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		if err := c.backend.Set(ctx, tenantID, categories, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "category cache write failed", "tenant_id", tenantID.String(), "error", err)
		}
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Invalidate drops the tenant's list. Failures are logged; the entry still
// expires with its TTL.
func (c *Categories) Invalidate(ctx context.Context, tenantID id.TenantID) {
	c.group.Forget(tenantID.String())
	if err := c.backend.Delete(ctx, tenantID); err != nil {
		c.logger.WarnContext(ctx, "category cache invalidation failed", "tenant_id", tenantID.String(), "error", err)
	}
}

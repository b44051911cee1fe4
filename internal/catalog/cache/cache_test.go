package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	catalogmetrics "storefront/internal/catalog/metrics"
	id "storefront/pkg/domain"
)

type countingLoader struct {
	calls atomic.Int32
	gate  chan struct{}
	value []string
	err   error
}

func (l *countingLoader) load(_ context.Context, _ id.TenantID) ([]string, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.value, l.err
}

func TestCategoriesReadThrough(t *testing.T) {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	loader := &countingLoader{value: []string{"aprons", "tools"}}
	m := catalogmetrics.New(prometheus.NewRegistry())
	c := NewCategories(NewInMemory(), loader.load, WithMetrics(m))

	got, err := c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"aprons", "tools"}, got)

	got, err = c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"aprons", "tools"}, got)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, 1.0, promtest.ToFloat64(m.CategoryCache.WithLabelValues(catalogmetrics.CacheHit)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.CategoryCache.WithLabelValues(catalogmetrics.CacheMiss)))

	c.Invalidate(ctx, tenantID)
	_, err = c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestCategoriesExpire(t *testing.T) {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backend := NewInMemory()
	backend.now = func() time.Time { return now }
	loader := &countingLoader{value: []string{"tools"}}
	c := NewCategories(backend, loader.load, WithTTL(time.Minute))

	_, err := c.Get(ctx, tenantID)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestCategoriesConcurrentMissesShareOneLoad(t *testing.T) {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())
	loader := &countingLoader{value: []string{"tools"}, gate: make(chan struct{})}
	c := NewCategories(NewInMemory(), loader.load)

	var started sync.WaitGroup
	g, gctx := errgroup.WithContext(ctx)
	for range 8 {
		started.Add(1)
		g.Go(func() error {
			started.Done()
			_, err := c.Get(gctx, tenantID)
			return err
		})
	}
	started.Wait()
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(loader.gate)
	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, loader.calls.Load(), int32(2))
}

func TestCategoriesLoadError(t *testing.T) {
	loader := &countingLoader{err: errors.New("db down")}
	c := NewCategories(NewInMemory(), loader.load)

	_, err := c.Get(context.Background(), id.TenantID(uuid.New()))
	assert.ErrorContains(t, err, "db down")
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	backend := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	tenantID := id.TenantID(uuid.New())

	_, ok, err := backend.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, tenantID, nil, time.Minute))
	got, ok, err := backend.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)

	require.NoError(t, backend.Set(ctx, tenantID, []string{"tools"}, time.Minute))
	mr.FastForward(2 * time.Minute)
	_, ok, err = backend.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, tenantID, []string{"tools"}, time.Minute))
	require.NoError(t, backend.Delete(ctx, tenantID))
	_, ok, err = backend.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackendFailureFallsThroughToLoader(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()
	m := catalogmetrics.New(prometheus.NewRegistry())
	loader := &countingLoader{value: []string{"tools"}}
	c := NewCategories(NewRedis(client), loader.load, WithMetrics(m))

	got, err := c.Get(context.Background(), id.TenantID(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, []string{"tools"}, got)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.CategoryCache.WithLabelValues(catalogmetrics.CacheError)))
}

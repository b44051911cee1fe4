package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"

	authhandler "storefront/internal/auth/handler"
	authmetrics "storefront/internal/auth/metrics"
	authservice "storefront/internal/auth/service"
	"storefront/internal/auth/store/revocation"
	userstore "storefront/internal/auth/store/user"
	"storefront/internal/authz"
	"storefront/internal/catalog/cache"
	cataloghandler "storefront/internal/catalog/handler"
	catalogmetrics "storefront/internal/catalog/metrics"
	catalogservice "storefront/internal/catalog/service"
	productstore "storefront/internal/catalog/store/product"
	jwttoken "storefront/internal/jwt_token"
	orderhandler "storefront/internal/order/handler"
	ordermetrics "storefront/internal/order/metrics"
	orderservice "storefront/internal/order/service"
	orderstore "storefront/internal/order/store/order"
	"storefront/internal/platform/config"
	"storefront/internal/platform/kafka"
	"storefront/internal/platform/metrics"
	"storefront/internal/platform/postgres"
	platformredis "storefront/internal/platform/redis"
	tenanthandler "storefront/internal/tenant/handler"
	tenantmetrics "storefront/internal/tenant/metrics"
	"storefront/internal/tenant/resolver"
	tenantservice "storefront/internal/tenant/service"
	tenantstore "storefront/internal/tenant/store/tenant"
	httptransport "storefront/internal/transport/http"
	"storefront/migrations"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/audit/publisher"
	kafkasink "storefront/pkg/platform/audit/publishers/kafka"
	auditmemory "storefront/pkg/platform/audit/store/memory"
	auditpostgres "storefront/pkg/platform/audit/store/postgres"
	"storefront/pkg/platform/tx"
)

// The store interfaces below are the union of what each consumer needs, so
// one concrete store can be handed to all of them.
type (
	tenantStore interface {
		tenantservice.TenantStore
		resolver.TenantLookup
	}
	userStore interface {
		authservice.UserStore
		orderservice.UserLookup
	}
	productStore interface {
		catalogservice.ProductStore
		orderservice.ProductStore
		Categories(ctx context.Context, tenantID id.TenantID) ([]string, error)
	}
	revocationList interface {
		authservice.RevocationList
	}
)

// backends is everything that differs between dev mode and a deployment.
type backends struct {
	tenants     tenantStore
	users       userStore
	products    productStore
	orders      orderservice.OrderStore
	audit       audit.Store
	revocations revocationList
	categories  cache.Backend
	tx          tx.Runner
	purgers     []tenantservice.Purger
	health      map[string]httptransport.HealthCheck
	closers     []func()

	// purgeRevocations drops expired revocation rows; nil when entries
	// expire on their own.
	purgeRevocations func(ctx context.Context) (int64, error)
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends picks Postgres or in-memory stores and Redis or in-memory
// cache and revocation list from cfg.
func openBackends(ctx context.Context, cfg config.Server, reg prometheus.Registerer, logger *slog.Logger) (*backends, error) {
	b := &backends{health: make(map[string]httptransport.HealthCheck)}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db, migrations.FS); err != nil {
			b.close()
			return nil, err
		}
		usePostgres(b, db)
		b.health["postgres"] = db.PingContext
		logger.Info("using postgres stores")
	} else {
		useMemory(b)
		logger.Warn("DATABASE_URL not set; using in-memory stores")
	}

	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		b.close()
		return nil, err
	}
	if client != nil {
		b.closers = append(b.closers, func() { _ = client.Close() })
		client.RegisterPoolMetrics(reg)
		b.categories = cache.NewRedis(client.Client)
		b.revocations = revocation.NewRedisTRL(client.Client, revocation.WithMetrics(revocation.NewMetrics(reg)))
		b.purgeRevocations = nil
		b.health["redis"] = client.Health
		logger.Info("using redis cache and revocation list")
	}
	return b, nil
}

func usePostgres(b *backends, db *sql.DB) {
	b.tenants = tenantstore.NewPostgres(db)
	b.users = userstore.NewPostgres(db)
	b.products = productstore.NewPostgres(db)
	b.orders = orderstore.NewPostgres(db)
	b.audit = auditpostgres.New(db)
	trl := revocation.NewPostgresTRL(db)
	b.revocations = trl
	b.purgeRevocations = trl.PurgeExpired
	b.categories = cache.NewInMemory()
	b.tx = postgres.NewTxRunner(db)
}

// useMemory wires the in-memory twins. Without foreign keys, tenant deletion
// purges each store explicitly and the product store asks the order store
// before deleting.
func useMemory(b *backends) {
	users := userstore.New()
	orders := orderstore.NewInMemory()
	products := productstore.NewInMemory(productstore.WithReferenceCheck(orders))

	b.tenants = tenantstore.NewInMemory()
	b.users = users
	b.products = products
	b.orders = orders
	b.audit = auditmemory.NewInMemoryStore()
	b.revocations = revocation.NewInMemoryTRL(nil)
	b.categories = cache.NewInMemory()
	b.tx = &tx.LocalRunner{}
	b.purgers = []tenantservice.Purger{orders, products, users}
}

// newAuditPublisher persists to the primary store, logs every event and, when
// brokers are configured, mirrors events to Kafka.
func newAuditPublisher(ctx context.Context, cfg config.KafkaConfig, store audit.Store, logger *slog.Logger) (*publisher.Publisher, *kgo.Client, error) {
	opts := []publisher.Option{
		publisher.WithLogger(logger),
		publisher.WithAsyncBuffer(1024),
		publisher.WithSink(publisher.NewLogSink(logger)),
	}
	client, err := kafka.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		if err := kafka.EnsureTopic(ctx, client, cfg.AuditTopic, 3, 1); err != nil {
			logger.Warn("could not ensure audit topic", "topic", cfg.AuditTopic, "error", err)
		}
		opts = append(opts, publisher.WithSink(kafkasink.NewSink(client, cfg.AuditTopic)))
		logger.Info("mirroring audit events to kafka", "topic", cfg.AuditTopic)
	}
	return publisher.NewPublisher(store, opts...), client, nil
}

type app struct {
	handler  http.Handler
	backends *backends
	audit    *publisher.Publisher
	kafka    *kgo.Client
}

func (a *app) close() {
	a.audit.Close()
	if a.kafka != nil {
		a.kafka.Close()
	}
	a.backends.close()
}

func newApp(ctx context.Context, cfg config.Server, logger *slog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b, err := openBackends(ctx, cfg, reg, logger)
	if err != nil {
		return nil, err
	}
	auditPublisher, kafkaClient, err := newAuditPublisher(ctx, cfg.Kafka, b.audit, logger)
	if err != nil {
		b.close()
		return nil, err
	}
	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	tenantMetrics := tenantmetrics.New(reg)
	catalogMetrics := catalogmetrics.New(reg)

	tenants := tenantservice.New(b.tenants,
		tenantservice.WithLogger(logger),
		tenantservice.WithAuditPublisher(auditPublisher),
		tenantservice.WithMetrics(tenantMetrics),
		tenantservice.WithPurgers(b.purgers...),
	)
	auth := authservice.New(b.users, b.tenants, tokens, b.revocations,
		authservice.WithLogger(logger),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithMetrics(authmetrics.New(reg)),
	)
	if err := seed(ctx, cfg.Seed, b.tenants, b.users, b.products, auth, logger); err != nil {
		(&app{backends: b, audit: auditPublisher, kafka: kafkaClient}).close()
		return nil, fmt.Errorf("seed: %w", err)
	}

	categories := cache.NewCategories(b.categories, b.products.Categories,
		cache.WithTTL(config.CategoryCacheTTL),
		cache.WithMetrics(catalogMetrics),
		cache.WithLogger(logger),
	)
	catalog := catalogservice.New(b.products, b.users, categories,
		catalogservice.WithLogger(logger),
		catalogservice.WithAuditPublisher(auditPublisher),
		catalogservice.WithMetrics(catalogMetrics),
		catalogservice.WithTxRunner(b.tx),
	)
	orders := orderservice.New(b.orders, b.products, b.users, b.tx,
		orderservice.WithLogger(logger),
		orderservice.WithAuditPublisher(auditPublisher),
		orderservice.WithMetrics(ordermetrics.New(reg)),
	)

	authzMetrics := authz.NewMetrics(reg)
	handler := httptransport.NewRouter(httptransport.Config{
		Logger:       logger,
		Resolver:     resolver.New(b.tenants, resolver.WithLogger(logger), resolver.WithMetrics(tenantMetrics)),
		Tokens:       tokens,
		Revocations:  b.revocations,
		HTTPMetrics:  metrics.New(reg),
		AuthzMetrics: authzMetrics,
		Gatherer:     reg,
		AdminToken:   cfg.AdminToken,
		HealthChecks: b.health,
	}, httptransport.Handlers{
		Auth:    authhandler.New(auth, logger),
		Tenants: tenanthandler.New(tenants, logger),
		Catalog: cataloghandler.New(catalog, logger),
		Orders:  orderhandler.New(orders, logger, orderhandler.WithAuthzMetrics(authzMetrics)),
	})

	return &app{handler: handler, backends: b, audit: auditPublisher, kafka: kafkaClient}, nil
}

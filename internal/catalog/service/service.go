package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	authmodels "storefront/internal/auth/models"
	"storefront/internal/authz"
	catalogmetrics "storefront/internal/catalog/metrics"
	"storefront/internal/catalog/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/tx"
	"storefront/pkg/requestcontext"
)

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, tenantID id.TenantID, productID id.ProductID) (*models.Product, error)
	List(ctx context.Context, tenantID id.TenantID, f models.Filter) ([]*models.Product, error)
	Execute(ctx context.Context, tenantID id.TenantID, productID id.ProductID, mutate func(*models.Product) error) (*models.Product, error)
	Delete(ctx context.Context, tenantID id.TenantID, productID id.ProductID) error
}

type UserLookup interface {
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*authmodels.User, error)
}

type CategoryCache interface {
	Get(ctx context.Context, tenantID id.TenantID) ([]string, error)
	Invalidate(ctx context.Context, tenantID id.TenantID)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the tenant-scoped catalog. Every operation reads the tenant from
// the caller, never from input.
type Service struct {
	products       ProductStore
	users          UserLookup
	categories     CategoryCache
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *catalogmetrics.Metrics
	tx             tx.Runner
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner runs stock-affecting writes in the same transaction runner the
// order engine uses, so they serialize with order placement.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func New(products ProductStore, users UserLookup, categories CategoryCache, opts ...Option) *Service {
	s := &Service{products: products, users: users, categories: categories, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProductView is a product plus the creator's username for display.
type ProductView struct {
	*models.Product
	CreatedByUsername string
}

func (s *Service) List(ctx context.Context, p requestcontext.Principal, f models.Filter) ([]ProductView, error) {
	products, err := s.products.List(ctx, p.TenantID, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list products")
	}
	return s.views(ctx, products)
}

func (s *Service) Get(ctx context.Context, p requestcontext.Principal, productID id.ProductID) (*ProductView, error) {
	product, err := s.products.FindByID(ctx, p.TenantID, productID)
	if err != nil {
		return nil, wrapProductErr(err)
	}
	views, err := s.views(ctx, []*models.Product{product})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Categories returns the distinct, sorted categories of the caller's tenant.
func (s *Service) Categories(ctx context.Context, p requestcontext.Principal) ([]string, error) {
	categories, err := s.categories.Get(ctx, p.TenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list categories")
	}
	return categories, nil
}

func (s *Service) Create(ctx context.Context, p requestcontext.Principal, in models.ProductInput) (*ProductView, error) {
	if !authz.CanWriteCatalog(p) {
		return nil, errCatalogDenied
	}
	createdBy := p.UserID
	product, err := models.NewProduct(id.ProductID(uuid.New()), p.TenantID, &createdBy, in, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, wrapProductErr(err)
	}
	s.categories.Invalidate(ctx, p.TenantID)
	s.metrics.IncrementProductsCreated()
	s.logger.InfoContext(ctx, "product created",
		"tenant_id", p.TenantID.String(),
		"product_id", product.ID.String(),
		"user_id", p.UserID.String(),
	)
	return &ProductView{Product: product, CreatedByUsername: p.Username}, nil
}

// Update applies a full (PUT) or partial (PATCH) update; the caller builds
// update accordingly.
func (s *Service) Update(ctx context.Context, p requestcontext.Principal, productID id.ProductID, update models.ProductUpdate) (*ProductView, error) {
	if !authz.CanWriteCatalog(p) {
		return nil, errCatalogDenied
	}
	now := requestcontext.Now(ctx)
	var product *models.Product
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.products.Execute(txCtx, p.TenantID, productID, func(product *models.Product) error {
			return toValidation(update.Apply(product, now))
		})
		return err
	})
	if err != nil {
		return nil, wrapProductErr(err)
	}
	s.categories.Invalidate(ctx, p.TenantID)
	views, err := s.views(ctx, []*models.Product{product})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes a product. Products still on an order are kept; callers
// deactivate them instead.
func (s *Service) Delete(ctx context.Context, p requestcontext.Principal, productID id.ProductID) error {
	if !authz.CanWriteCatalog(p) {
		return errCatalogDenied
	}
	err := s.inTx(ctx, func(txCtx context.Context) error {
		return s.products.Delete(txCtx, p.TenantID, productID)
	})
	if err != nil {
		return wrapProductErr(err)
	}
	s.categories.Invalidate(ctx, p.TenantID)
	s.emit(ctx, p, audit.EventProductDeleted, productID)
	return nil
}

func (s *Service) inTx(ctx context.Context, fn func(context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.RunInTx(ctx, fn)
}

func (s *Service) views(ctx context.Context, products []*models.Product) ([]ProductView, error) {
	var creators []id.UserID
	for _, product := range products {
		if product.CreatedBy != nil {
			creators = append(creators, *product.CreatedBy)
		}
	}
	users, err := s.users.FindByIDs(ctx, creators)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product creators")
	}
	out := make([]ProductView, len(products))
	for i, product := range products {
		out[i] = ProductView{Product: product}
		if product.CreatedBy != nil {
			if u, ok := users[*product.CreatedBy]; ok {
				out[i].CreatedByUsername = u.Username
			}
		}
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, p requestcontext.Principal, event audit.AuditEvent, productID id.ProductID) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Category: event.Category(),
		TenantID: p.TenantID,
		UserID:   p.UserID,
		Subject:  productID.String(),
		Action:   string(event),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", string(event),
			"product_id", productID.String(),
			"error", err,
		)
	}
}

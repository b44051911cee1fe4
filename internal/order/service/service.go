package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	authmodels "storefront/internal/auth/models"
	catalogmodels "storefront/internal/catalog/models"
	ordermetrics "storefront/internal/order/metrics"
	"storefront/internal/order/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/tx"
	"storefront/pkg/requestcontext"
)

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	NumberExists(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, tenantID id.TenantID, orderID id.OrderID) (*models.Order, error)
	List(ctx context.Context, tenantID id.TenantID, q models.Query) ([]*models.Order, error)
	Execute(ctx context.Context, tenantID id.TenantID, orderID id.OrderID, mutate func(*models.Order) error) (*models.Order, error)
	Delete(ctx context.Context, tenantID id.TenantID, orderID id.OrderID) error
}

// ProductStore is the slice of the catalog the order transaction needs.
// LockForOrder must be called inside the transaction.
type ProductStore interface {
	LockForOrder(ctx context.Context, tenantID id.TenantID, productIDs []id.ProductID) ([]*catalogmodels.Product, error)
	DecrementStock(ctx context.Context, tenantID id.TenantID, productID id.ProductID, qty int) error
}

type UserLookup interface {
	FindByTenantAndID(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*authmodels.User, error)
	FindByIDs(ctx context.Context, userIDs []id.UserID) (map[id.UserID]*authmodels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const maxOrderNumberAttempts = 5

// Service is the order engine. Every operation is scoped to the caller's
// tenant and visibility.
type Service struct {
	orders         OrderStore
	products       ProductStore
	users          UserLookup
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *ordermetrics.Metrics
	tracer         trace.Tracer
	newNumber      func() string
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

func WithMetrics(m *ordermetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithOrderNumbers replaces the order number generator.
func WithOrderNumbers(next func() string) Option {
	return func(s *Service) {
		s.newNumber = next
	}
}

func New(orders OrderStore, products ProductStore, users UserLookup, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		orders:    orders,
		products:  products,
		users:     users,
		tx:        runner,
		logger:    slog.Default(),
		tracer:    otel.Tracer("storefront/internal/order"),
		newNumber: models.NewOrderNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrderView is an order plus the display names its responses carry.
type OrderView struct {
	*models.Order
	CustomerName      string
	AssignedStaffName string
}

func (s *Service) views(ctx context.Context, orders []*models.Order) ([]OrderView, error) {
	seen := make(map[id.UserID]struct{})
	var userIDs []id.UserID
	add := func(u id.UserID) {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			userIDs = append(userIDs, u)
		}
	}
	for _, o := range orders {
		add(o.CustomerID)
		if o.AssignedStaffID != nil {
			add(*o.AssignedStaffID)
		}
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, wrapOrderErr(err)
	}
	out := make([]OrderView, len(orders))
	for i, o := range orders {
		out[i] = OrderView{Order: o}
		if u, ok := users[o.CustomerID]; ok {
			out[i].CustomerName = u.DisplayName()
		}
		if o.AssignedStaffID != nil {
			if u, ok := users[*o.AssignedStaffID]; ok {
				out[i].AssignedStaffName = u.DisplayName()
			}
		}
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, o *models.Order) (*OrderView, error) {
	views, err := s.views(ctx, []*models.Order{o})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) emit(ctx context.Context, p requestcontext.Principal, event audit.AuditEvent, orderID id.OrderID, details map[string]string) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Category: event.Category(),
		TenantID: p.TenantID,
		UserID:   p.UserID,
		Subject:  orderID.String(),
		Action:   string(event),
		Details:  details,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", string(event),
			"order_id", orderID.String(),
			"error", err,
		)
	}
}

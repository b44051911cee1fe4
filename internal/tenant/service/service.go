package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"storefront/internal/authz"
	tenantmetrics "storefront/internal/tenant/metrics"
	"storefront/internal/tenant/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

type TenantStore interface {
	Create(ctx context.Context, t *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant) error) (*models.Tenant, error)
	Delete(ctx context.Context, tenantID id.TenantID) error
}

// Purger removes a tenant's rows from a store that has no foreign keys to
// cascade through. Postgres deployments need none.
type Purger interface {
	DeleteByTenant(ctx context.Context, tenantID id.TenantID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages the tenant lifecycle. Visibility is checked before
// permission so a caller never learns about tenants it cannot see.
type Service struct {
	tenants        TenantStore
	purgers        []Purger
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *tenantmetrics.Metrics
}

type Option func(s *Service)

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

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPurgers registers stores cleared when a tenant is deleted.
func WithPurgers(purgers ...Purger) Option {
	return func(s *Service) {
		s.purgers = append(s.purgers, purgers...)
	}
}

func New(tenants TenantStore, opts ...Option) *Service {
	s := &Service{tenants: tenants, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the fields accepted on tenant creation.
type CreateInput struct {
	Name         string
	StoreName    string
	Subdomain    string
	ContactEmail string
	ContactPhone string
	Domain       *string
}

func (s *Service) Create(ctx context.Context, p requestcontext.Principal, in CreateInput) (*models.Tenant, error) {
	if !authz.CanManageTenants(p) {
		return nil, dErrors.New(dErrors.CodeForbidden, authz.DeniedMessage)
	}

	t, err := models.NewTenant(id.TenantID(uuid.New()), in.Name, in.StoreName, in.Subdomain, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	update := models.TenantUpdate{
		ContactEmail: &in.ContactEmail,
		ContactPhone: &in.ContactPhone,
		Domain:       in.Domain,
	}
	if err := update.Apply(t, t.CreatedAt); err != nil {
		return nil, toValidation(err)
	}

	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emit(ctx, audit.EventTenantCreated, t.ID, nil)
	if s.metrics != nil {
		s.metrics.IncrementTenantCreated()
	}
	return t, nil
}

// List returns every tenant to superusers and only the caller's own tenant to
// everyone else, newest first.
func (s *Service) List(ctx context.Context, p requestcontext.Principal) ([]*models.Tenant, error) {
	if p.Superuser {
		tenants, err := s.tenants.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
		}
		return tenants, nil
	}
	t, err := s.tenants.FindByID(ctx, p.TenantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return []*models.Tenant{}, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
	}
	return []*models.Tenant{t}, nil
}

func (s *Service) Get(ctx context.Context, p requestcontext.Principal, tenantID id.TenantID) (*models.Tenant, error) {
	if !authz.CanViewTenant(p, tenantID) {
		return nil, errTenantNotFound
	}
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return t, nil
}

// Update applies a full or partial update under the store's row lock.
func (s *Service) Update(ctx context.Context, p requestcontext.Principal, tenantID id.TenantID, update models.TenantUpdate) (*models.Tenant, error) {
	if !authz.CanViewTenant(p, tenantID) {
		return nil, errTenantNotFound
	}
	if !authz.CanUpdateTenant(p, tenantID) {
		return nil, dErrors.New(dErrors.CodeForbidden, authz.DeniedMessage)
	}

	now := requestcontext.Now(ctx)
	t, err := s.tenants.Execute(ctx, tenantID,
		func(*models.Tenant) error { return nil },
		func(t *models.Tenant) error {
			if err := update.Apply(t, now); err != nil {
				return toValidation(err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emit(ctx, audit.EventTenantUpdated, t.ID, map[string]string{"status": string(t.Status)})
	return t, nil
}

// Delete removes the tenant and everything it owns.
func (s *Service) Delete(ctx context.Context, p requestcontext.Principal, tenantID id.TenantID) error {
	if !authz.CanViewTenant(p, tenantID) {
		return errTenantNotFound
	}
	if !authz.CanManageTenants(p) {
		return dErrors.New(dErrors.CodeForbidden, authz.DeniedMessage)
	}

	if err := s.tenants.Delete(ctx, tenantID); err != nil {
		return wrapTenantErr(err)
	}
	for _, purger := range s.purgers {
		if err := purger.DeleteByTenant(ctx, tenantID); err != nil {
			s.logger.ErrorContext(ctx, "failed to purge tenant data",
				"tenant_id", tenantID.String(),
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete tenant data")
		}
	}

	s.emit(ctx, audit.EventTenantDeleted, tenantID, nil)
	if s.metrics != nil {
		s.metrics.IncrementTenantDeleted()
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, tenantID id.TenantID, details map[string]string) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Category: event.Category(),
		TenantID: tenantID,
		UserID:   requestcontext.UserID(ctx),
		Subject:  tenantID.String(),
		Action:   string(event),
		Details:  details,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", string(event),
			"tenant_id", tenantID.String(),
			"error", err,
		)
	}
}

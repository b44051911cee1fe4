package service

import (
	"context"
	"log/slog"
	"time"

	authmetrics "storefront/internal/auth/metrics"
	"storefront/internal/auth/models"
	jwttoken "storefront/internal/jwt_token"
	tenantmodels "storefront/internal/tenant/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/audit"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByTenantAndUsername(ctx context.Context, tenantID id.TenantID, username string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) ([]*models.User, error)
}

type TenantLookup interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*tenantmodels.Tenant, error)
}

type TokenIssuer interface {
	IssuePair(identity jwttoken.Identity) (*jwttoken.Pair, error)
	ValidateRefreshToken(token string) (*jwttoken.Claims, error)
}

// RevocationList records consumed refresh token ids until they would have
// expired anyway.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service registers users, checks credentials and rotates refresh tokens.
type Service struct {
	users          UserStore
	tenants        TenantLookup
	tokens         TokenIssuer
	revocations    RevocationList
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *authmetrics.Metrics
	bcryptCost     int
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

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(users UserStore, tenants TenantLookup, tokens TokenIssuer, revocations RevocationList, opts ...Option) *Service {
	s := &Service{
		users:       users,
		tenants:     tenants,
		tokens:      tokens,
		revocations: revocations,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is the outcome of a login or refresh: the user, the tenant it
// belongs to, and a fresh token pair.
type Session struct {
	User   *models.User
	Tenant *tenantmodels.Tenant
	Tokens *jwttoken.Pair
}

// issue signs a token pair for u. tenant_name carries the tenant's store name.
func (s *Service) issue(u *models.User, t *tenantmodels.Tenant) (*Session, error) {
	pair, err := s.tokens.IssuePair(jwttoken.Identity{
		UserID:     u.ID,
		TenantID:   u.TenantID,
		TenantName: t.StoreName,
		Username:   u.Username,
		Role:       u.Role,
		Superuser:  u.IsSuperuser,
	})
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Tenant: t, Tokens: pair}, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,TenantLookup,RevocationList,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	authmetrics "storefront/internal/auth/metrics"
	"storefront/internal/auth/models"
	"storefront/internal/auth/password"
	"storefront/internal/auth/service/mocks"
	jwttoken "storefront/internal/jwt_token"
	tenantmodels "storefront/internal/tenant/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

const (
	testPassword = "correct-horse-1"
	refreshTTL   = 7 * 24 * time.Hour
)

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	users       *mocks.MockUserStore
	tenants     *mocks.MockTenantLookup
	revocations *mocks.MockRevocationList
	auditor     *mocks.MockAuditPublisher
	jwt         *jwttoken.JWTService
	metrics     *authmetrics.Metrics
	service     *Service

	hash   string
	tenant *tenantmodels.Tenant
	user   *models.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupSuite() {
	var err error
	s.hash, err = password.Hash(testPassword, bcrypt.MinCost)
	s.Require().NoError(err)
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserStore(s.ctrl)
	s.tenants = mocks.NewMockTenantLookup(s.ctrl)
	s.revocations = mocks.NewMockRevocationList(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.jwt = jwttoken.NewJWTService("test-signing-key", "storefront-test", 15*time.Minute, refreshTTL)
	s.metrics = authmetrics.New(prometheus.NewRegistry())
	s.service = New(s.users, s.tenants, s.jwt, s.revocations,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditor),
		WithMetrics(s.metrics),
		WithBcryptCost(bcrypt.MinCost),
	)

	var err error
	s.tenant, err = tenantmodels.NewTenant(id.TenantID(uuid.New()), "Acme", "Acme Store", "acme", time.Now())
	s.Require().NoError(err)
	s.user, err = models.NewUser(id.UserID(uuid.New()), s.tenant.ID, "alice", id.RoleStaff, s.hash, models.Profile{}, time.Now())
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) expectAudit(action audit.AuditEvent) {
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(action), e.Action)
		return nil
	})
}

func (s *ServiceSuite) TestRegister() {
	ctx := context.Background()
	input := func() RegisterInput {
		return RegisterInput{
			TenantID: s.tenant.ID,
			Username: "bob",
			Password: testPassword,
			Profile:  models.Profile{Email: "bob@example.com"},
		}
	}

	s.Run("creates a customer by default", func() {
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
		s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.expectAudit(audit.EventUserRegistered)

		u, err := s.service.Register(ctx, input())
		s.Require().NoError(err)
		s.Equal(id.RoleCustomer, u.Role)
		s.Equal(s.tenant.ID, u.TenantID)
		s.False(u.IsSuperuser)
		ok, err := password.Verify(testPassword, u.PasswordHash)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(1.0, promtest.ToFloat64(s.metrics.UsersRegistered.WithLabelValues("customer")))
	})

	s.Run("weak password never reaches the stores", func() {
		in := input()
		in.Password = "12345678"
		_, err := s.service.Register(ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown tenant", func() {
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Register(ctx, input())
		s.ErrorIs(err, errInvalidTenant)
	})

	s.Run("inactive tenant", func() {
		inactive := *s.tenant
		inactive.Status = tenantmodels.TenantStatusInactive
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(&inactive, nil)
		_, err := s.service.Register(ctx, input())
		s.ErrorIs(err, errInvalidTenant)
	})

	s.Run("duplicate username in tenant", func() {
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
		s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)
		_, err := s.service.Register(ctx, input())
		s.ErrorIs(err, errUsernameTaken)
	})

	s.Run("store failure is internal", func() {
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
		s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		_, err := s.service.Register(ctx, input())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestCreateSuperuser() {
	s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
	s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	u, err := s.service.CreateSuperuser(context.Background(), s.tenant.ID, "root", testPassword)
	s.Require().NoError(err)
	s.True(u.IsSuperuser)
	s.Equal(id.RoleStoreOwner, u.Role)
}

func (s *ServiceSuite) TestLogin() {
	ctx := requestcontext.WithClientMetadata(context.Background(), "10.0.0.1",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	s.Run("explicit tenant issues tokens carrying tenant claims", func() {
		s.users.EXPECT().FindByTenantAndUsername(gomock.Any(), s.tenant.ID, "alice").Return(s.user, nil)
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventLoginSucceeded), e.Action)
			s.Contains(e.Details["device"], "Chrome on Linux")
			return nil
		})

		session, err := s.service.Login(ctx, LoginInput{TenantID: &s.tenant.ID, Username: "alice", Password: testPassword})
		s.Require().NoError(err)

		claims, err := s.jwt.ValidateAccessToken(session.Tokens.Access)
		s.Require().NoError(err)
		s.Equal(s.user.ID.String(), claims.UserID)
		s.Equal(s.tenant.ID.String(), claims.TenantID)
		s.Equal("Acme Store", claims.TenantName)
		s.Equal("staff", claims.Role)
		s.Equal(1.0, promtest.ToFloat64(s.metrics.Logins.WithLabelValues(authmetrics.LoginSucceeded)))
	})

	s.Run("wrong password", func() {
		s.users.EXPECT().FindByTenantAndUsername(gomock.Any(), s.tenant.ID, "alice").Return(s.user, nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventLoginFailed), e.Action)
			s.Equal("bad password", e.Reason)
			s.Equal(s.tenant.ID, e.TenantID)
			return nil
		})

		_, err := s.service.Login(ctx, LoginInput{TenantID: &s.tenant.ID, Username: "alice", Password: "nope-nope-1"})
		s.ErrorIs(err, errInvalidCredentials)
	})

	s.Run("unknown user in tenant", func() {
		s.users.EXPECT().FindByTenantAndUsername(gomock.Any(), s.tenant.ID, "ghost").Return(nil, sentinel.ErrNotFound)
		s.expectAudit(audit.EventLoginFailed)

		_, err := s.service.Login(ctx, LoginInput{TenantID: &s.tenant.ID, Username: "ghost", Password: testPassword})
		s.ErrorIs(err, errInvalidCredentials)
	})

	s.Run("without tenant a unique username logs in", func() {
		s.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return([]*models.User{s.user}, nil)
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
		s.expectAudit(audit.EventLoginSucceeded)

		session, err := s.service.Login(ctx, LoginInput{Username: "alice", Password: testPassword})
		s.Require().NoError(err)
		s.Equal(s.user.ID, session.User.ID)
	})

	s.Run("without tenant an ambiguous username is rejected", func() {
		twin := *s.user
		twin.ID = id.UserID(uuid.New())
		twin.TenantID = id.TenantID(uuid.New())
		s.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return([]*models.User{s.user, &twin}, nil)
		s.expectAudit(audit.EventLoginFailed)

		_, err := s.service.Login(ctx, LoginInput{Username: "alice", Password: testPassword})
		s.ErrorIs(err, errInvalidCredentials)
	})

	s.Run("inactive tenant", func() {
		inactive := *s.tenant
		inactive.Status = tenantmodels.TenantStatusInactive
		s.users.EXPECT().FindByTenantAndUsername(gomock.Any(), s.tenant.ID, "alice").Return(s.user, nil)
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(&inactive, nil)
		s.expectAudit(audit.EventLoginFailed)

		_, err := s.service.Login(ctx, LoginInput{TenantID: &s.tenant.ID, Username: "alice", Password: testPassword})
		s.ErrorIs(err, errInvalidCredentials)
	})

	s.Run("inactive user", func() {
		disabled := *s.user
		disabled.IsActive = false
		s.users.EXPECT().FindByTenantAndUsername(gomock.Any(), s.tenant.ID, "alice").Return(&disabled, nil)
		s.expectAudit(audit.EventLoginFailed)

		_, err := s.service.Login(ctx, LoginInput{TenantID: &s.tenant.ID, Username: "alice", Password: testPassword})
		s.ErrorIs(err, errInvalidCredentials)
	})
}

func (s *ServiceSuite) TestRefresh() {
	ctx := context.Background()
	issue := func() (*jwttoken.Pair, *jwttoken.Claims) {
		pair, err := s.jwt.IssuePair(jwttoken.Identity{
			UserID:   s.user.ID,
			TenantID: s.tenant.ID,
			Username: s.user.Username,
			Role:     id.RoleCustomer,
		})
		s.Require().NoError(err)
		claims, err := s.jwt.ValidateRefreshToken(pair.Refresh)
		s.Require().NoError(err)
		return pair, claims
	}

	s.Run("rotates and re-reads the user", func() {
		pair, claims := issue()
		s.revocations.EXPECT().IsRevoked(gomock.Any(), claims.ID).Return(false, nil)
		s.users.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(s.user, nil)
		s.tenants.EXPECT().FindByID(gomock.Any(), s.tenant.ID).Return(s.tenant, nil)
		s.revocations.EXPECT().RevokeToken(gomock.Any(), claims.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, ttl time.Duration) error {
				s.InDelta(refreshTTL.Seconds(), ttl.Seconds(), 60)
				return nil
			})
		s.expectAudit(audit.EventTokenRefreshed)

		session, err := s.service.Refresh(ctx, pair.Refresh)
		s.Require().NoError(err)
		s.NotEqual(pair.Refresh, session.Tokens.Refresh)

		// Role comes from the store, not the presented token.
		access, err := s.jwt.ValidateAccessToken(session.Tokens.Access)
		s.Require().NoError(err)
		s.Equal("staff", access.Role)
		s.Equal("Acme Store", access.TenantName)
	})

	s.Run("revoked token is rejected", func() {
		pair, claims := issue()
		s.revocations.EXPECT().IsRevoked(gomock.Any(), claims.ID).Return(true, nil)

		_, err := s.service.Refresh(ctx, pair.Refresh)
		s.ErrorIs(err, errTokenRevoked)
	})

	s.Run("access token is not a refresh token", func() {
		pair, _ := issue()
		_, err := s.service.Refresh(ctx, pair.Access)
		s.ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, "wrong token type"))
	})

	s.Run("deactivated user cannot refresh", func() {
		pair, claims := issue()
		disabled := *s.user
		disabled.IsActive = false
		s.revocations.EXPECT().IsRevoked(gomock.Any(), claims.ID).Return(false, nil)
		s.users.EXPECT().FindByID(gomock.Any(), s.user.ID).Return(&disabled, nil)

		_, err := s.service.Refresh(ctx, pair.Refresh)
		s.ErrorIs(err, errInvalidCredentials)
	})

	s.Run("revocation backend failure is internal", func() {
		pair, claims := issue()
		s.revocations.EXPECT().IsRevoked(gomock.Any(), claims.ID).Return(false, errors.New("redis down"))

		_, err := s.service.Refresh(ctx, pair.Refresh)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

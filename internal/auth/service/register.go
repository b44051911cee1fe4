package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"storefront/internal/auth/models"
	"storefront/internal/auth/password"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

type RegisterInput struct {
	TenantID id.TenantID
	Username string
	Password string
	Role     id.Role
	Profile  models.Profile
}

// Register creates a user in an active tenant.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	u, err := s.createUser(ctx, in, false)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementUsersRegistered(string(u.Role))
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventUserRegistered),
		TenantID: u.TenantID,
		UserID:   u.ID,
		Subject:  u.Username,
		Details:  map[string]string{"role": string(u.Role)},
	})
	s.logger.InfoContext(ctx, "user registered",
		"tenant_id", u.TenantID.String(),
		"user_id", u.ID.String(),
		"role", string(u.Role),
	)
	return u, nil
}

// CreateSuperuser bootstraps a platform operator inside tenantID. It runs
// at startup only, so the password policy still applies but no audit event
// is emitted.
func (s *Service) CreateSuperuser(ctx context.Context, tenantID id.TenantID, username, pw string) (*models.User, error) {
	return s.createUser(ctx, RegisterInput{
		TenantID: tenantID,
		Username: username,
		Password: pw,
		Role:     id.RoleStoreOwner,
	}, true)
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, superuser bool) (*models.User, error) {
	if err := password.Validate(in.Password); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = id.RoleCustomer
	}

	t, err := s.tenants.FindByID(ctx, in.TenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errInvalidTenant
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
	}
	if !t.IsActive() {
		return nil, errInvalidTenant
	}

	hash, err := password.Hash(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u, err := models.NewUser(id.UserID(uuid.New()), t.ID, in.Username, in.Role, hash, in.Profile, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	u.IsSuperuser = superuser

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, errUsernameTaken
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, errInvalidTenant
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return u, nil
}

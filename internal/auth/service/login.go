package service

import (
	"context"
	"errors"

	authmetrics "storefront/internal/auth/metrics"
	"storefront/internal/auth/models"
	"storefront/internal/auth/password"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/middleware/metadata"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

// LoginInput names the tenant explicitly, or leaves TenantID nil to look the
// username up across tenants.
type LoginInput struct {
	TenantID *id.TenantID
	Username string
	Password string
}

// Login checks credentials and issues a token pair. Every failure looks the
// same to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.findLoginUser(ctx, in)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, err
		}
		s.loginFailed(ctx, in, "unknown user")
		return nil, errInvalidCredentials
	}

	ok, err := password.Verify(in.Password, u.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "password verification failed", "user_id", u.ID.String(), "error", err)
	}
	if !ok {
		s.loginFailed(ctx, in, "bad password")
		return nil, errInvalidCredentials
	}
	if !u.IsActive {
		s.loginFailed(ctx, in, "inactive user")
		return nil, errInvalidCredentials
	}

	t, err := s.tenants.FindByID(ctx, u.TenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.loginFailed(ctx, in, "tenant missing")
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
	}
	if !t.IsActive() {
		s.loginFailed(ctx, in, "inactive tenant")
		return nil, errInvalidCredentials
	}

	session, err := s.issue(u, t)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementLogin(authmetrics.LoginSucceeded)
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventLoginSucceeded),
		TenantID: u.TenantID,
		UserID:   u.ID,
		Subject:  u.Username,
		Details:  map[string]string{"device": metadata.Device(requestcontext.UserAgent(ctx))},
	})
	return session, nil
}

func (s *Service) findLoginUser(ctx context.Context, in LoginInput) (*models.User, error) {
	if in.TenantID != nil {
		u, err := s.users.FindByTenantAndUsername(ctx, *in.TenantID, in.Username)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, errInvalidCredentials
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}
		return u, nil
	}

	// Without a tenant the username must be unambiguous.
	matches, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if len(matches) != 1 {
		return nil, errInvalidCredentials
	}
	return matches[0], nil
}

func (s *Service) loginFailed(ctx context.Context, in LoginInput, reason string) {
	s.metrics.IncrementLogin(authmetrics.LoginFailed)
	event := audit.Event{
		Action:  string(audit.EventLoginFailed),
		Subject: in.Username,
		Reason:  reason,
		Details: map[string]string{"device": metadata.Device(requestcontext.UserAgent(ctx))},
	}
	if in.TenantID != nil {
		event.TenantID = *in.TenantID
	}
	s.emit(ctx, event)
}

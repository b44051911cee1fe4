package service

import (
	"context"
	"errors"

	"storefront/internal/auth/models"
	tenantmodels "storefront/internal/tenant/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

// Refresh rotates a refresh token. The presented token is revoked for the rest
// of its lifetime and a new pair is issued from the current user record, so
// role or tenant changes take effect on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token revocation")
	}
	if revoked {
		s.logger.WarnContext(ctx, "refresh token reuse", "jti", claims.ID, "user_id", claims.UserID)
		return nil, errTokenRevoked
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	u, t, err := s.loadActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	ttl := claims.ExpiresAtTime().Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	}
	if err := s.revocations.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke refresh token")
	}

	session, err := s.issue(u, t)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTokenRefreshes()
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventTokenRefreshed),
		TenantID: u.TenantID,
		UserID:   u.ID,
		Subject:  u.Username,
	})
	return session, nil
}

func (s *Service) loadActive(ctx context.Context, userID id.UserID) (*models.User, *tenantmodels.Tenant, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, errInvalidCredentials
		}
		return nil, nil, wrapStoreErr(err, "failed to load user")
	}
	if !u.IsActive {
		return nil, nil, errInvalidCredentials
	}
	t, err := s.tenants.FindByID(ctx, u.TenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, errInvalidCredentials
		}
		return nil, nil, wrapStoreErr(err, "failed to load tenant")
	}
	if !t.IsActive() {
		return nil, nil, errInvalidCredentials
	}
	return u, t, nil
}

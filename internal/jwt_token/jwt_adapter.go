package jwttoken

import (
	authmw "storefront/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.Claims {
	return &authmw.Claims{
		UserID:     claims.UserID,
		TenantID:   claims.TenantID,
		TenantName: claims.TenantName,
		Username:   claims.Username,
		Role:       claims.Role,
		Superuser:  claims.Superuser,
		JTI:        claims.ID,
	}
}

// ValidateAccessToken satisfies the auth middleware's TokenValidator. Refresh
// tokens are rejected here.
func (s *JWTService) ValidateAccessToken(tokenString string) (*authmw.Claims, error) {
	claims, err := s.ValidateToken(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}

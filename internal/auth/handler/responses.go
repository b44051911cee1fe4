package handler

import (
	"time"

	"storefront/internal/auth/models"
	"storefront/internal/auth/service"
)

type UserResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		TenantID:  u.TenantID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResponse echoes the token claims next to the tokens.
type LoginResponse struct {
	TokenPairResponse
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Role       string `json:"role"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
}

func toLoginResponse(s *service.Session) LoginResponse {
	return LoginResponse{
		TokenPairResponse: TokenPairResponse{Access: s.Tokens.Access, Refresh: s.Tokens.Refresh},
		TenantID:          s.User.TenantID.String(),
		TenantName:        s.Tenant.StoreName,
		Role:              string(s.User.Role),
		UserID:            s.User.ID.String(),
		Username:          s.User.Username,
	}
}

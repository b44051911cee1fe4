package handler

import (
	"strings"

	"storefront/internal/auth/models"
	"storefront/internal/auth/service"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
)

const fieldRequired = "This field is required."

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Role      string `json:"role"`
	TenantID  string `json:"tenant_id"`

	role     id.Role
	tenantID id.TenantID
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.TenantID = strings.TrimSpace(r.TenantID)
}

// Validate checks shape only; the password policy and tenant status are
// enforced by the service.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	switch {
	case r.Username == "":
		return dErrors.NewField(dErrors.CodeValidation, "username", fieldRequired)
	case r.Password == "":
		return dErrors.NewField(dErrors.CodeValidation, "password", fieldRequired)
	case r.Password2 == "":
		return dErrors.NewField(dErrors.CodeValidation, "password2", fieldRequired)
	case r.Password != r.Password2:
		return dErrors.NewField(dErrors.CodeValidation, "password", "Password fields didn't match.")
	case r.TenantID == "":
		return dErrors.NewField(dErrors.CodeValidation, "tenant_id", fieldRequired)
	}

	role, err := id.ParseRole(r.Role)
	if err != nil {
		return err
	}
	tenantID, err := id.ParseTenantID(r.TenantID)
	if err != nil {
		return dErrors.NewField(dErrors.CodeValidation, "tenant_id", "Invalid or inactive tenant.")
	}
	r.role, r.tenantID = role, tenantID
	return nil
}

func (r *RegisterRequest) Input() service.RegisterInput {
	return service.RegisterInput{
		TenantID: r.tenantID,
		Username: r.Username,
		Password: r.Password,
		Role:     r.role,
		Profile: models.Profile{
			Email:     r.Email,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Phone:     r.Phone,
			Address:   r.Address,
		},
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TenantID string `json:"tenant_id"`

	tenantID *id.TenantID
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.TenantID = strings.TrimSpace(r.TenantID)
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Username == "" {
		return dErrors.NewField(dErrors.CodeValidation, "username", fieldRequired)
	}
	if r.Password == "" {
		return dErrors.NewField(dErrors.CodeValidation, "password", fieldRequired)
	}
	if r.TenantID != "" {
		tenantID, err := id.ParseTenantID(r.TenantID)
		if err != nil {
			return dErrors.NewField(dErrors.CodeValidation, "tenant_id", "invalid tenant ID")
		}
		r.tenantID = &tenantID
	}
	return nil
}

func (r *LoginRequest) Input() service.LoginInput {
	return service.LoginInput{TenantID: r.tenantID, Username: r.Username, Password: r.Password}
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

func (r *RefreshRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Refresh) == "" {
		return dErrors.NewField(dErrors.CodeValidation, "refresh", fieldRequired)
	}
	return nil
}

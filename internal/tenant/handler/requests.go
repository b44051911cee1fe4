package handler

import (
	"strings"

	"storefront/internal/tenant/models"
	"storefront/internal/tenant/service"
	dErrors "storefront/pkg/domain-errors"
)

// CreateTenantRequest is the body for POST /tenants/.
type CreateTenantRequest struct {
	Name         string  `json:"name"`
	StoreName    string  `json:"store_name"`
	Subdomain    string  `json:"subdomain"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone string  `json:"contact_phone"`
	Domain       *string `json:"domain"`
}

func (r *CreateTenantRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.StoreName = strings.TrimSpace(r.StoreName)
	r.Subdomain = strings.ToLower(strings.TrimSpace(r.Subdomain))
	r.ContactEmail = strings.TrimSpace(r.ContactEmail)
	r.ContactPhone = strings.TrimSpace(r.ContactPhone)
	if r.Domain != nil && strings.TrimSpace(*r.Domain) == "" {
		r.Domain = nil
	}
}

func (r *CreateTenantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == "" {
		return dErrors.NewField(dErrors.CodeValidation, "name", "This field is required.")
	}
	if r.StoreName == "" {
		return dErrors.NewField(dErrors.CodeValidation, "store_name", "This field is required.")
	}
	if r.Subdomain == "" {
		return dErrors.NewField(dErrors.CodeValidation, "subdomain", "This field is required.")
	}
	return nil
}

func (r *CreateTenantRequest) Input() service.CreateInput {
	return service.CreateInput{
		Name:         r.Name,
		StoreName:    r.StoreName,
		Subdomain:    r.Subdomain,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		Domain:       r.Domain,
	}
}

// UpdateTenantRequest serves both PUT and PATCH. Absent fields are nil. An
// empty domain clears it.
type UpdateTenantRequest struct {
	Name         *string `json:"name"`
	StoreName    *string `json:"store_name"`
	Subdomain    *string `json:"subdomain"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Domain       *string `json:"domain"`
	IsActive     *bool   `json:"is_active"`

	// full is set for PUT, which replaces every writable field.
	full bool
}

func (r *UpdateTenantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !r.full {
		return nil
	}
	required := []struct {
		field string
		value *string
	}{
		{"name", r.Name},
		{"store_name", r.StoreName},
		{"subdomain", r.Subdomain},
	}
	for _, f := range required {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			return dErrors.NewField(dErrors.CodeValidation, f.field, "This field is required.")
		}
	}
	return nil
}

// Update converts the request to a model update. On PUT, omitted optional
// fields reset to empty.
func (r *UpdateTenantRequest) Update() models.TenantUpdate {
	u := models.TenantUpdate{
		Name:         r.Name,
		StoreName:    r.StoreName,
		Subdomain:    r.Subdomain,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		IsActive:     r.IsActive,
	}
	if r.Domain != nil && strings.TrimSpace(*r.Domain) == "" {
		u.ClearDomain = true
	} else {
		u.Domain = r.Domain
	}
	if r.full {
		empty := ""
		if u.ContactEmail == nil {
			u.ContactEmail = &empty
		}
		if u.ContactPhone == nil {
			u.ContactPhone = &empty
		}
		if r.Domain == nil {
			u.ClearDomain = true
		}
	}
	return u
}

type fullTenantRequest struct{ UpdateTenantRequest }

func (r *fullTenantRequest) Validate() error {
	r.full = true
	return r.UpdateTenantRequest.Validate()
}

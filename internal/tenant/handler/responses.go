package handler

import (
	"time"

	"storefront/internal/tenant/models"
)

type TenantResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StoreName    string    `json:"store_name"`
	Subdomain    string    `json:"subdomain"`
	Domain       *string   `json:"domain"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toTenantResponse(t *models.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		StoreName:    t.StoreName,
		Subdomain:    t.Subdomain,
		Domain:       t.Domain,
		ContactEmail: t.ContactEmail,
		ContactPhone: t.ContactPhone,
		IsActive:     t.IsActive(),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toTenantList(tenants []*models.Tenant) []*TenantResponse {
	out := make([]*TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(t))
	}
	return out
}

package handler

import (
	"time"

	"storefront/internal/catalog/service"
)

type ProductResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Price             string    `json:"price"`
	Stock             int       `json:"stock"`
	Category          string    `json:"category"`
	ImageURL          string    `json:"image_url"`
	IsActive          bool      `json:"is_active"`
	CreatedBy         *string   `json:"created_by"`
	CreatedByUsername string    `json:"created_by_username"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toProductResponse(v service.ProductView) *ProductResponse {
	resp := &ProductResponse{
		ID:                v.ID.String(),
		Name:              v.Name,
		Description:       v.Description,
		Price:             v.Price.StringFixed(2),
		Stock:             v.Stock,
		Category:          v.Category,
		ImageURL:          v.ImageURL,
		IsActive:          v.IsActive,
		CreatedByUsername: v.CreatedByUsername,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
	if v.CreatedBy != nil {
		createdBy := v.CreatedBy.String()
		resp.CreatedBy = &createdBy
	}
	return resp
}

func toProductList(views []service.ProductView) []*ProductResponse {
	out := make([]*ProductResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toProductResponse(v))
	}
	return out
}

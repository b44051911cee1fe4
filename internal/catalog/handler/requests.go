package handler

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/catalog/models"
	dErrors "storefront/pkg/domain-errors"
)

// ProductRequest is the body for POST /products/ and PUT /products/{id}.
// Price accepts a JSON number or a decimal string.
type ProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Category    string           `json:"category"`
	ImageURL    string           `json:"image_url"`
	IsActive    *bool            `json:"is_active"`
}

func (r *ProductRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
}

func (r *ProductRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == "" {
		return dErrors.NewField(dErrors.CodeValidation, "name", "This field is required.")
	}
	if r.Price == nil {
		return dErrors.NewField(dErrors.CodeValidation, "price", "This field is required.")
	}
	if r.Stock == nil {
		return dErrors.NewField(dErrors.CodeValidation, "stock", "This field is required.")
	}
	if r.Category == "" {
		return dErrors.NewField(dErrors.CodeValidation, "category", "This field is required.")
	}
	return nil
}

func (r *ProductRequest) isActive() bool {
	return r.IsActive == nil || *r.IsActive
}

func (r *ProductRequest) Input() models.ProductInput {
	return models.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       *r.Price,
		Stock:       *r.Stock,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		IsActive:    r.isActive(),
	}
}

// Update replaces every writable field; omitted optional fields reset.
func (r *ProductRequest) Update() models.ProductUpdate {
	active := r.isActive()
	return models.ProductUpdate{
		Name:        &r.Name,
		Description: &r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    &r.Category,
		ImageURL:    &r.ImageURL,
		IsActive:    &active,
	}
}

// PatchProductRequest is the body for PATCH /products/{id}. Absent fields are
// left unchanged.
type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"image_url"`
	IsActive    *bool            `json:"is_active"`
}

func (r *PatchProductRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *PatchProductRequest) Update() models.ProductUpdate {
	return models.ProductUpdate{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		IsActive:    r.IsActive,
	}
}

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/sentinel"
)

const (
	maxNameLength     = 255
	maxCategoryLength = 100
	maxURLLength      = 200
)

// priceLimit is the first value NUMERIC(10, 2) cannot hold.
var priceLimit = decimal.New(1, 8)

// Product is a tenant-scoped catalog item.
//
// Invariants:
//   - Price > 0 with at most two decimal places
//   - Stock >= 0; only DecrementStock lowers it
//   - Name and Category are non-empty
type Product struct {
	ID          id.ProductID
	TenantID    id.TenantID
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	ImageURL    string
	IsActive    bool
	CreatedBy   *id.UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductInput carries the writable fields of a new product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	ImageURL    string
	IsActive    bool
}

func NewProduct(productID id.ProductID, tenantID id.TenantID, createdBy *id.UserID, in ProductInput, now time.Time) (*Product, error) {
	p := &Product{
		ID:          productID,
		TenantID:    tenantID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsActive:    in.IsActive,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if tenantID.IsNil() {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "tenant_id", "product must belong to a tenant")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks every field invariant. Errors name the offending field.
func (p *Product) Validate() error {
	if p.Name == "" {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "name", "product name cannot be empty")
	}
	if len(p.Name) > maxNameLength {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "name", "product name must be 255 characters or less")
	}
	if p.Category == "" {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "category", "category cannot be empty")
	}
	if len(p.Category) > maxCategoryLength {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "category", "category must be 100 characters or less")
	}
	if len(p.ImageURL) > maxURLLength {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "image_url", "image URL must be 200 characters or less")
	}
	if !p.Price.IsPositive() {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "price", "price must be greater than zero")
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "price", "price must have at most 2 decimal places")
	}
	if p.Price.GreaterThanOrEqual(priceLimit) {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "price", "price must have at most 8 digits before the decimal point")
	}
	if p.Stock < 0 {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "stock", "stock cannot be negative")
	}
	return nil
}

// DecrementStock removes qty units. It refuses to take stock below zero.
func (p *Product) DecrementStock(qty int) error {
	if qty < 1 {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "quantity", "quantity must be at least 1")
	}
	if p.Stock < qty {
		return sentinel.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

// ProductUpdate carries the fields a PUT or PATCH may change. Nil means
// unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Category    *string
	ImageURL    *string
	IsActive    *bool
}

// Apply mutates p and re-validates. Callers apply to a copy.
func (u ProductUpdate) Apply(p *Product, now time.Time) error {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		p.Description = strings.TrimSpace(*u.Description)
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Category != nil {
		p.Category = strings.TrimSpace(*u.Category)
	}
	if u.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*u.ImageURL)
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	p.UpdatedAt = now
	return p.Validate()
}

// Filter narrows a product listing. Conditions are ANDed; zero values are
// ignored.
type Filter struct {
	Category string
	IsActive *bool
	// Search matches name or description, case-insensitively.
	Search string
}

// Matches applies the filter in memory.
func (f Filter) Matches(p *Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) && !strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}

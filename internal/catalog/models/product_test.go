package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/sentinel"
)

func widget(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct(id.ProductID(uuid.New()), id.TenantID(uuid.New()), nil, ProductInput{
		Name:     "Widget",
		Price:    decimal.RequireFromString("10.00"),
		Stock:    5,
		Category: "tools",
		IsActive: true,
	}, time.Now())
	require.NoError(t, err)
	return p
}

func TestNewProductInvariants(t *testing.T) {
	base := ProductInput{Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 1, Category: "tools"}
	tests := []struct {
		name  string
		edit  func(*ProductInput)
		field string
	}{
		{"blank name", func(in *ProductInput) { in.Name = " " }, "name"},
		{"blank category", func(in *ProductInput) { in.Category = "" }, "category"},
		{"zero price", func(in *ProductInput) { in.Price = decimal.Zero }, "price"},
		{"negative price", func(in *ProductInput) { in.Price = decimal.RequireFromString("-1") }, "price"},
		{"three decimals", func(in *ProductInput) { in.Price = decimal.RequireFromString("1.005") }, "price"},
		{"too large", func(in *ProductInput) { in.Price = decimal.RequireFromString("100000000") }, "price"},
		{"negative stock", func(in *ProductInput) { in.Stock = -1 }, "stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.edit(&in)
			_, err := NewProduct(id.ProductID(uuid.New()), id.TenantID(uuid.New()), nil, in, time.Now())
			de, ok := dErrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, de.Field)
		})
	}

	t.Run("trailing zeros are fine", func(t *testing.T) {
		in := base
		in.Price = decimal.RequireFromString("99999999.990")
		_, err := NewProduct(id.ProductID(uuid.New()), id.TenantID(uuid.New()), nil, in, time.Now())
		assert.NoError(t, err)
	})
}

func TestDecrementStock(t *testing.T) {
	p := widget(t)
	require.NoError(t, p.DecrementStock(3))
	assert.Equal(t, 2, p.Stock)

	assert.ErrorIs(t, p.DecrementStock(3), sentinel.ErrInsufficientStock)
	assert.Equal(t, 2, p.Stock)

	assert.Error(t, p.DecrementStock(0))
}

func TestProductUpdateApply(t *testing.T) {
	p := widget(t)
	price := decimal.RequireFromString("12.50")
	name := " Gadget "
	require.NoError(t, ProductUpdate{Name: &name, Price: &price}.Apply(p, time.Now()))
	assert.Equal(t, "Gadget", p.Name)
	assert.True(t, p.Price.Equal(price))

	stock := -4
	err := ProductUpdate{Stock: &stock}.Apply(p, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestFilterMatches(t *testing.T) {
	p := widget(t)
	p.Description = "A sturdy Steel widget"
	inactive := false

	assert.True(t, Filter{}.Matches(p))
	assert.True(t, Filter{Category: "tools", Search: "steel"}.Matches(p))
	assert.True(t, Filter{Search: "WIDG"}.Matches(p))
	assert.False(t, Filter{Category: "Tools"}.Matches(p))
	assert.False(t, Filter{IsActive: &inactive}.Matches(p))
	assert.False(t, Filter{Search: "brass"}.Matches(p))
}

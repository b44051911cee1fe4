package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"storefront/internal/catalog/models"
	id "storefront/pkg/domain"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/platform/tx"
)

type stubRefs struct {
	referenced map[id.ProductID]bool
}

func (s stubRefs) IsProductReferenced(_ context.Context, productID id.ProductID) (bool, error) {
	return s.referenced[productID], nil
}

type InMemorySuite struct {
	suite.Suite
	ctx    context.Context
	store  *InMemory
	tenant id.TenantID
	other  id.TenantID
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.tenant = id.TenantID(uuid.New())
	s.other = id.TenantID(uuid.New())
}

func (s *InMemorySuite) add(tenantID id.TenantID, name, category string, stock int, created time.Time) *models.Product {
	p, err := models.NewProduct(id.ProductID(uuid.New()), tenantID, nil, models.ProductInput{
		Name:     name,
		Price:    decimal.RequireFromString("10.00"),
		Stock:    stock,
		Category: category,
		IsActive: true,
	}, created)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *InMemorySuite) TestTenantScoping() {
	theirs := s.add(s.other, "Hammer", "tools", 1, time.Now())

	_, err := s.store.FindByID(s.ctx, s.tenant, theirs.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Execute(s.ctx, s.tenant, theirs.ID, func(*models.Product) error { return nil })
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(s.ctx, s.tenant, theirs.ID), sentinel.ErrNotFound)
	s.ErrorIs(s.store.DecrementStock(s.ctx, s.tenant, theirs.ID, 1), sentinel.ErrNotFound)

	locked, err := s.store.LockForOrder(s.ctx, s.tenant, []id.ProductID{theirs.ID})
	s.Require().NoError(err)
	s.Empty(locked)
}

func (s *InMemorySuite) TestListAndCategories() {
	now := time.Now()
	older := s.add(s.tenant, "Widget", "tools", 1, now.Add(-time.Hour))
	newer := s.add(s.tenant, "Apron", "aprons", 1, now)
	s.add(s.other, "Saw", "saws", 1, now)

	all, err := s.store.List(s.ctx, s.tenant, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)
	s.Equal(older.ID, all[1].ID)

	filtered, err := s.store.List(s.ctx, s.tenant, models.Filter{Search: "widg"})
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(older.ID, filtered[0].ID)

	categories, err := s.store.Categories(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Equal([]string{"aprons", "tools"}, categories)
}

func (s *InMemorySuite) TestExecuteKeepsOriginalOnError() {
	p := s.add(s.tenant, "Widget", "tools", 5, time.Now())
	_, err := s.store.Execute(s.ctx, s.tenant, p.ID, func(w *models.Product) error {
		w.Stock = 100
		return sentinel.ErrInvalidState
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	found, err := s.store.FindByID(s.ctx, s.tenant, p.ID)
	s.Require().NoError(err)
	s.Equal(5, found.Stock)
}

func (s *InMemorySuite) TestDecrementStock() {
	p := s.add(s.tenant, "Widget", "tools", 5, time.Now())
	s.Require().NoError(s.store.DecrementStock(s.ctx, s.tenant, p.ID, 3))
	s.ErrorIs(s.store.DecrementStock(s.ctx, s.tenant, p.ID, 3), sentinel.ErrInsufficientStock)

	found, err := s.store.FindByID(s.ctx, s.tenant, p.ID)
	s.Require().NoError(err)
	s.Equal(2, found.Stock)
}

func (s *InMemorySuite) TestDecrementStockUndoneWithTransaction() {
	p := s.add(s.tenant, "Widget", "tools", 5, time.Now())
	var runner tx.LocalRunner
	err := runner.RunInTx(s.ctx, func(txCtx context.Context) error {
		s.Require().NoError(s.store.DecrementStock(txCtx, s.tenant, p.ID, 4))
		return errors.New("later step failed")
	})
	s.Require().Error(err)

	found, err := s.store.FindByID(s.ctx, s.tenant, p.ID)
	s.Require().NoError(err)
	s.Equal(5, found.Stock)
}

func (s *InMemorySuite) TestDeleteRestrictedWhileReferenced() {
	p := s.add(s.tenant, "Widget", "tools", 5, time.Now())
	free := s.add(s.tenant, "Gizmo", "tools", 5, time.Now())
	s.store.SetReferenceChecker(stubRefs{referenced: map[id.ProductID]bool{p.ID: true}})

	s.ErrorIs(s.store.Delete(s.ctx, s.tenant, p.ID), sentinel.ErrConflict)
	s.NoError(s.store.Delete(s.ctx, s.tenant, free.ID))
}

func (s *InMemorySuite) TestDeleteByTenant() {
	s.add(s.tenant, "Widget", "tools", 5, time.Now())
	kept := s.add(s.other, "Saw", "saws", 1, time.Now())

	s.Require().NoError(s.store.DeleteByTenant(s.ctx, s.tenant))

	left, err := s.store.List(s.ctx, s.tenant, models.Filter{})
	s.Require().NoError(err)
	s.Empty(left)
	_, err = s.store.FindByID(s.ctx, s.other, kept.ID)
	s.NoError(err)
}

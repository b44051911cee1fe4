package service

import (
	"context"

	"storefront/internal/authz"
	"storefront/internal/order/models"
	id "storefront/pkg/domain"
	"storefront/pkg/requestcontext"
)

// visibility is the set of orders p may see at all. Anything outside it is
// reported as not found.
func visibility(p requestcontext.Principal) models.Query {
	userID := p.UserID
	switch p.Role {
	case id.RoleStoreOwner:
		return models.Query{}
	case id.RoleStaff:
		return models.Query{StaffID: &userID}
	default:
		return models.Query{CustomerID: &userID}
	}
}

// List returns the orders visible to p, newest first. A non-empty status
// keeps only orders in exactly that status.
func (s *Service) List(ctx context.Context, p requestcontext.Principal, status string) ([]OrderView, error) {
	q := visibility(p)
	q.Status = status
	orders, err := s.orders.List(ctx, p.TenantID, q)
	if err != nil {
		return nil, wrapOrderErr(err)
	}
	return s.views(ctx, orders)
}

// MyOrders returns the caller's own orders regardless of role.
func (s *Service) MyOrders(ctx context.Context, p requestcontext.Principal) ([]OrderView, error) {
	userID := p.UserID
	orders, err := s.orders.List(ctx, p.TenantID, models.Query{CustomerID: &userID})
	if err != nil {
		return nil, wrapOrderErr(err)
	}
	return s.views(ctx, orders)
}

func (s *Service) Get(ctx context.Context, p requestcontext.Principal, orderID id.OrderID) (*OrderView, error) {
	o, err := s.orders.FindByID(ctx, p.TenantID, orderID)
	if err != nil {
		return nil, wrapOrderErr(err)
	}
	if err := checkAccess(p, o, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.view(ctx, o)
}

// checkAccess applies visibility first, so a hidden order is a 404, then the
// object permission.
func checkAccess(p requestcontext.Principal, o *models.Order, action authz.Action) error {
	if !visibility(p).Visible(o) {
		return errOrderNotFound
	}
	if !authz.CanActOnOrder(p, action, o.CustomerID, o.AssignedStaffID) {
		return errOrderDenied
	}
	return nil
}

package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/authz"
	"storefront/internal/order/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/audit"
	"storefront/pkg/platform/sentinel"
	"storefront/pkg/requestcontext"
)

// Update changes the writable fields of an order. Items, customer and total
// are never touched.
func (s *Service) Update(ctx context.Context, p requestcontext.Principal, orderID id.OrderID, update models.OrderUpdate) (*OrderView, error) {
	now := requestcontext.Now(ctx)
	var previous models.Status
	o, err := s.orders.Execute(ctx, p.TenantID, orderID, func(o *models.Order) error {
		if err := checkAccess(p, o, authz.ActionWrite); err != nil {
			return err
		}
		previous = o.Status
		return toValidation(update.Apply(o, now))
	})
	if err != nil {
		return nil, wrapOrderErr(err)
	}
	if o.Status != previous {
		s.statusChanged(ctx, p, o, previous)
	}
	return s.view(ctx, o)
}

// UpdateStatus sets any of the six statuses; there is no transition graph.
func (s *Service) UpdateStatus(ctx context.Context, p requestcontext.Principal, orderID id.OrderID, status string) (view *OrderView, err error) {
	ctx, span := s.tracer.Start(ctx, "order.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", p.TenantID.String()),
		attribute.String("order.id", orderID.String()),
		attribute.String("order.status", status),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
	}()

	next, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var previous models.Status
	o, err := s.orders.Execute(ctx, p.TenantID, orderID, func(o *models.Order) error {
		if err := checkAccess(p, o, authz.ActionWrite); err != nil {
			return err
		}
		previous = o.Status
		return toValidation(o.SetStatus(next, now))
	})
	if err != nil {
		return nil, wrapOrderErr(err)
	}
	s.statusChanged(ctx, p, o, previous)
	return s.view(ctx, o)
}

func (s *Service) statusChanged(ctx context.Context, p requestcontext.Principal, o *models.Order, previous models.Status) {
	s.metrics.IncrementStatusChange(string(o.Status))
	s.emit(ctx, p, audit.EventOrderStatusChanged, o.ID, map[string]string{
		"from": string(previous),
		"to":   string(o.Status),
	})
}

// AssignStaff hands the order to a staff member of the caller's tenant. Only
// store owners may assign, and that is checked before anything is read.
func (s *Service) AssignStaff(ctx context.Context, p requestcontext.Principal, orderID id.OrderID, staffID id.UserID) (*OrderView, error) {
	if !authz.CanAssignStaff(p) {
		return nil, errAssignDenied
	}
	if _, err := s.orders.FindByID(ctx, p.TenantID, orderID); err != nil {
		return nil, wrapOrderErr(err)
	}

	staff, err := s.users.FindByTenantAndID(ctx, p.TenantID, staffID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errStaffNotFound
		}
		return nil, wrapOrderErr(err)
	}
	if staff.Role != id.RoleStaff {
		return nil, errStaffNotFound
	}

	now := requestcontext.Now(ctx)
	o, err := s.orders.Execute(ctx, p.TenantID, orderID, func(o *models.Order) error {
		if err := checkAccess(p, o, authz.ActionWrite); err != nil {
			return err
		}
		o.AssignStaff(staff.ID, now)
		return nil
	})
	if err != nil {
		return nil, wrapOrderErr(err)
	}
	s.emit(ctx, p, audit.EventOrderStaffAssigned, o.ID, map[string]string{"staff_id": staff.ID.String()})
	return s.view(ctx, o)
}

// Delete removes the order and its items. Stock is not restored.
func (s *Service) Delete(ctx context.Context, p requestcontext.Principal, orderID id.OrderID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.orders.FindByID(txCtx, p.TenantID, orderID)
		if err != nil {
			return err
		}
		if err := checkAccess(p, o, authz.ActionWrite); err != nil {
			return err
		}
		return s.orders.Delete(txCtx, p.TenantID, orderID)
	})
	if err != nil {
		return wrapOrderErr(err)
	}
	s.emit(ctx, p, audit.EventOrderDeleted, orderID, nil)
	return nil
}

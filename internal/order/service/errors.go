package service

import (
	"errors"
	"fmt"

	"storefront/internal/authz"
	catalogmodels "storefront/internal/catalog/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/sentinel"
)

var (
	errOrderNotFound = dErrors.New(dErrors.CodeNotFound, "order not found")
	errStaffNotFound = dErrors.New(dErrors.CodeNotFound, "Staff member not found")
	errOrderDenied   = dErrors.New(dErrors.CodeForbidden, authz.DeniedMessage)
	errAssignDenied  = dErrors.New(dErrors.CodeForbidden, "Only store owners can assign staff")
)

// errProductUnavailable reads the same whether the product is missing, in
// another tenant, or inactive.
func errProductUnavailable(productID id.ProductID) error {
	return dErrors.NewField(dErrors.CodeValidation, "items",
		fmt.Sprintf("Invalid pk %q - object does not exist.", productID.String()))
}

func errInsufficientStock(p *catalogmodels.Product) error {
	return dErrors.NewField(dErrors.CodeValidation, "items",
		fmt.Sprintf("Insufficient stock for %s. Available: %d", p.Name, p.Stock))
}

func wrapOrderErr(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return errOrderNotFound
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "order number collision; retry the request")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeValidation, "order violates a data constraint")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "order store failure")
	}
}

func toValidation(err error) error {
	de, ok := dErrors.As(err)
	if !ok || de.Code != dErrors.CodeInvariantViolation {
		return err
	}
	return dErrors.NewField(dErrors.CodeValidation, de.Field, de.Message)
}

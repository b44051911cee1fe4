package service

import (
	"errors"

	"storefront/internal/authz"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/sentinel"
)

var (
	errProductNotFound = dErrors.New(dErrors.CodeNotFound, "product not found")
	errCatalogDenied   = dErrors.New(dErrors.CodeForbidden, authz.DeniedMessage)
)

func wrapProductErr(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return errProductNotFound
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "product is referenced by existing orders; deactivate it instead")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeValidation, "product violates a data constraint")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "product store failure")
	}
}

func toValidation(err error) error {
	de, ok := dErrors.As(err)
	if !ok || de.Code != dErrors.CodeInvariantViolation {
		return err
	}
	return dErrors.NewField(dErrors.CodeValidation, de.Field, de.Message)
}

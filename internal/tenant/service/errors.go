package service

import (
	"errors"

	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/sentinel"
)

var errTenantNotFound = dErrors.New(dErrors.CodeNotFound, "tenant not found")

// wrapTenantErr translates store sentinels into coded errors. Coded errors
// raised inside Execute callbacks pass through unchanged.
func wrapTenantErr(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return errTenantNotFound
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "a tenant with this name, subdomain or domain already exists")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeValidation, "tenant violates a data constraint")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
	}
}

// toValidation turns model invariant errors into 400s, keeping the field.
func toValidation(err error) error {
	de, ok := dErrors.As(err)
	if !ok || de.Code != dErrors.CodeInvariantViolation {
		return err
	}
	return dErrors.NewField(dErrors.CodeValidation, de.Field, de.Message)
}

package service

import (
	"errors"

	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/sentinel"
)

var (
	errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "No active account found with the given credentials")
	errTokenRevoked       = dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
	errInvalidTenant      = dErrors.NewField(dErrors.CodeValidation, "tenant_id", "Invalid or inactive tenant.")
	errUsernameTaken      = dErrors.NewField(dErrors.CodeValidation, "username", "A user with that username already exists.")
)

func wrapStoreErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// toValidation turns model invariant errors into 400s, keeping the field.
func toValidation(err error) error {
	de, ok := dErrors.As(err)
	if !ok || de.Code != dErrors.CodeInvariantViolation {
		return err
	}
	return dErrors.NewField(dErrors.CodeValidation, de.Field, de.Message)
}

package domain

import (
	"strings"

	dErrors "storefront/pkg/domain-errors"
)

// Role is the closed set of tenant roles. Every authorization decision reads
// the caller's role together with their tenant.
type Role string

const (
	RoleStoreOwner Role = "store_owner"
	RoleStaff      Role = "staff"
	RoleCustomer   Role = "customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStoreOwner, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts a role name in any case. An empty string yields RoleCustomer.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleCustomer, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", dErrors.NewField(dErrors.CodeValidation, "role", "role must be one of store_owner, staff, customer")
	}
	return r, nil
}

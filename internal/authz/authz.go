// Package authz holds every authorization rule in one place: route-level
// predicates over the caller and resolved tenant, and the object-level
// decision table for orders and tenants.
package authz

import (
	"net/http"

	id "storefront/pkg/domain"
	"storefront/pkg/requestcontext"
)

// Subject is what route predicates see.
type Subject struct {
	Principal *requestcontext.Principal
	Tenant    *requestcontext.Tenant
	Method    string
}

// SafeMethod reports GET, HEAD and OPTIONS.
func SafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (s Subject) authenticated() bool {
	return s.Principal != nil && s.Principal.Authenticated()
}

func (s Subject) hasRole(roles ...id.Role) bool {
	if !s.authenticated() {
		return false
	}
	for _, r := range roles {
		if s.Principal.Role == r {
			return true
		}
	}
	return false
}

// Predicate is a named route check. The name labels denial metrics.
type Predicate struct {
	Name  string
	Allow func(Subject) bool
}

// TenantUser passes an authenticated caller whose tenant matches the resolved
// tenant. With no resolved tenant it passes on authentication alone.
var TenantUser = Predicate{
	Name: "tenant_user",
	Allow: func(s Subject) bool {
		if !s.authenticated() {
			return false
		}
		if s.Tenant == nil {
			return true
		}
		return s.Principal.TenantID == s.Tenant.ID
	},
}

var StoreOwnerOnly = Predicate{
	Name: "store_owner_only",
	Allow: func(s Subject) bool {
		return s.hasRole(id.RoleStoreOwner)
	},
}

var StoreOwnerOrStaff = Predicate{
	Name: "store_owner_or_staff",
	Allow: func(s Subject) bool {
		return s.hasRole(id.RoleStoreOwner, id.RoleStaff)
	},
}

// StaffOrReadOnly lets anyone through on safe methods; writes need owner or staff.
var StaffOrReadOnly = Predicate{
	Name: "staff_or_read_only",
	Allow: func(s Subject) bool {
		if SafeMethod(s.Method) {
			return true
		}
		return s.hasRole(id.RoleStoreOwner, id.RoleStaff)
	},
}

// All composes predicates with logical AND. Require reports the first one that
// fails.
func All(preds ...Predicate) []Predicate {
	return preds
}

// firstDenied returns the first predicate that rejects s.
func firstDenied(s Subject, preds []Predicate) (Predicate, bool) {
	for _, p := range preds {
		if !p.Allow(s) {
			return p, true
		}
	}
	return Predicate{}, false
}

// Check evaluates preds against s and reports whether all pass.
func Check(s Subject, preds ...Predicate) bool {
	_, denied := firstDenied(s, preds)
	return !denied
}

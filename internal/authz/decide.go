package authz

import (
	id "storefront/pkg/domain"
	"storefront/pkg/requestcontext"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Relationship is how the caller relates to an order.
type Relationship string

const (
	RelNone     Relationship = "none"
	RelPlaced   Relationship = "placed"
	RelAssigned Relationship = "assigned"
)

type decisionKey struct {
	role   id.Role
	action Action
	rel    Relationship
}

// orderDecisions is the whole object-level policy for orders. Missing keys deny.
var orderDecisions = map[decisionKey]bool{
	{id.RoleStoreOwner, ActionRead, RelNone}:      true,
	{id.RoleStoreOwner, ActionRead, RelPlaced}:    true,
	{id.RoleStoreOwner, ActionRead, RelAssigned}:  true,
	{id.RoleStoreOwner, ActionWrite, RelNone}:     true,
	{id.RoleStoreOwner, ActionWrite, RelPlaced}:   true,
	{id.RoleStoreOwner, ActionWrite, RelAssigned}: true,

	{id.RoleStaff, ActionRead, RelNone}:      true,
	{id.RoleStaff, ActionRead, RelPlaced}:    true,
	{id.RoleStaff, ActionRead, RelAssigned}:  true,
	{id.RoleStaff, ActionWrite, RelAssigned}: true,

	{id.RoleCustomer, ActionRead, RelPlaced}: true,
}

// Decide looks up the order policy for (role, action, relationship).
func Decide(role id.Role, action Action, rel Relationship) bool {
	return orderDecisions[decisionKey{role, action, rel}]
}

// OrderRelationship derives the caller's relationship to an order. Being the
// assigned staff member outranks having placed it.
func OrderRelationship(caller id.UserID, customerID id.UserID, assignedStaff *id.UserID) Relationship {
	if assignedStaff != nil && *assignedStaff == caller {
		return RelAssigned
	}
	if customerID == caller {
		return RelPlaced
	}
	return RelNone
}

// CanActOnOrder is the object check for order detail, update, delete and
// status changes.
func CanActOnOrder(p requestcontext.Principal, action Action, customerID id.UserID, assignedStaff *id.UserID) bool {
	if !p.Authenticated() {
		return false
	}
	return Decide(p.Role, action, OrderRelationship(p.UserID, customerID, assignedStaff))
}

// CanManageTenants gates tenant create and delete.
func CanManageTenants(p requestcontext.Principal) bool {
	return p.Authenticated() && p.Superuser
}

// CanViewTenant lets superusers see every tenant and others only their own.
func CanViewTenant(p requestcontext.Principal, tenantID id.TenantID) bool {
	if !p.Authenticated() {
		return false
	}
	return p.Superuser || p.TenantID == tenantID
}

// CanUpdateTenant allows superusers and the tenant's own store owner.
func CanUpdateTenant(p requestcontext.Principal, tenantID id.TenantID) bool {
	if !p.Authenticated() {
		return false
	}
	if p.Superuser {
		return true
	}
	return p.Role == id.RoleStoreOwner && p.TenantID == tenantID
}

// CanWriteCatalog allows store owners and staff to change products.
func CanWriteCatalog(p requestcontext.Principal) bool {
	return Check(Subject{Principal: &p}, StoreOwnerOrStaff)
}

// CanAssignStaff allows only store owners to assign orders. The assign_staff
// route applies StoreOwnerOnly as well.
func CanAssignStaff(p requestcontext.Principal) bool {
	return Check(Subject{Principal: &p}, StoreOwnerOnly)
}

package audit

import (
	"context"
	"time"

	id "storefront/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers account and tenant lifecycle changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication outcomes and token rotation.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine order activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	TenantID  id.TenantID   `json:"tenant_id"`
	// UserID is the acting user; nil for anonymous actions such as failed logins.
	UserID id.UserID `json:"user_id"`
	// Subject identifies the resource acted on (order number, tenant id, username).
	Subject   string            `json:"subject"`
	Action    string            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	// Auth events
	EventUserRegistered AuditEvent = "user_registered"
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventLoginFailed    AuditEvent = "login_failed"
	EventTokenRefreshed AuditEvent = "token_refreshed"

	// Tenant events
	EventTenantCreated AuditEvent = "tenant_created"
	EventTenantUpdated AuditEvent = "tenant_updated"
	EventTenantDeleted AuditEvent = "tenant_deleted"

	// Catalog events
	EventProductDeleted AuditEvent = "product_deleted"

	// Order events
	EventOrderCreated       AuditEvent = "order_created"
	EventOrderStatusChanged AuditEvent = "order_status_changed"
	EventOrderStaffAssigned AuditEvent = "order_staff_assigned"
	EventOrderDeleted       AuditEvent = "order_deleted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserRegistered: CategoryCompliance,
	EventTenantCreated:  CategoryCompliance,
	EventTenantUpdated:  CategoryCompliance,
	EventTenantDeleted:  CategoryCompliance,

	EventLoginSucceeded: CategorySecurity,
	EventLoginFailed:    CategorySecurity,
	EventTokenRefreshed: CategorySecurity,
}

// Category returns the category for an event; unknown events are operational.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

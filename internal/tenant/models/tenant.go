package models

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
)

const (
	maxNameLength      = 255
	maxPhoneLength     = 20
	maxSubdomainLength = 63
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// CanTransitionTo allows only active <-> inactive flips.
func (s TenantStatus) CanTransitionTo(next TenantStatus) bool {
	switch s {
	case TenantStatusActive:
		return next == TenantStatusInactive
	case TenantStatusInactive:
		return next == TenantStatusActive
	default:
		return false
	}
}

// Tenant is one store. Users, products and orders hang off it.
//
// Invariants:
//   - Name is non-empty, unique case-insensitively
//   - Subdomain is a lower-case DNS label and unique
//   - Domain, when set, is unique
//   - Inactive tenants are never resolved from a request
type Tenant struct {
	ID           id.TenantID
	Name         string
	StoreName    string
	ContactEmail string
	ContactPhone string
	Domain       *string
	Subdomain    string
	Status       TenantStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// CanSetActive checks the requested status flip. Setting the current value
// again is a no-op, not an error.
func (t *Tenant) CanSetActive(active bool) error {
	next := TenantStatusInactive
	if active {
		next = TenantStatusActive
	}
	if next == t.Status || t.Status.CanTransitionTo(next) {
		return nil
	}
	return dErrors.New(dErrors.CodeInvariantViolation, "invalid tenant status transition")
}

// NewTenant validates and builds an active tenant.
func NewTenant(tenantID id.TenantID, name, storeName, subdomain string, now time.Time) (*Tenant, error) {
	t := &Tenant{
		ID:        tenantID,
		Name:      strings.TrimSpace(name),
		StoreName: strings.TrimSpace(storeName),
		Subdomain: strings.ToLower(strings.TrimSpace(subdomain)),
		Status:    TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks every field invariant. Errors name the offending field.
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "name", "tenant name cannot be empty")
	}
	if len(t.Name) > maxNameLength {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "name", "tenant name must be 255 characters or less")
	}
	if t.StoreName == "" {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "store_name", "store name cannot be empty")
	}
	if len(t.StoreName) > maxNameLength {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "store_name", "store name must be 255 characters or less")
	}
	if len(t.Subdomain) > maxSubdomainLength || !subdomainPattern.MatchString(t.Subdomain) {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "subdomain", "subdomain must be a lower-case DNS label")
	}
	if t.ContactEmail != "" {
		if _, err := mail.ParseAddress(t.ContactEmail); err != nil {
			return dErrors.NewField(dErrors.CodeInvariantViolation, "contact_email", "enter a valid email address")
		}
	}
	if len(t.ContactPhone) > maxPhoneLength {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "contact_phone", "contact phone must be 20 characters or less")
	}
	if t.Domain != nil && (*t.Domain == "" || len(*t.Domain) > maxNameLength) {
		return dErrors.NewField(dErrors.CodeInvariantViolation, "domain", "domain must be 1 to 255 characters")
	}
	return nil
}

// TenantUpdate carries the fields a PUT or PATCH may change. Nil means
// unchanged. ClearDomain removes the custom domain.
type TenantUpdate struct {
	Name         *string
	StoreName    *string
	ContactEmail *string
	ContactPhone *string
	Domain       *string
	ClearDomain  bool
	Subdomain    *string
	IsActive     *bool
}

// Apply mutates t and re-validates. t is left modified even on error, so
// callers apply to a copy.
func (u TenantUpdate) Apply(t *Tenant, now time.Time) error {
	if u.Name != nil {
		t.Name = strings.TrimSpace(*u.Name)
	}
	if u.StoreName != nil {
		t.StoreName = strings.TrimSpace(*u.StoreName)
	}
	if u.ContactEmail != nil {
		t.ContactEmail = strings.TrimSpace(*u.ContactEmail)
	}
	if u.ContactPhone != nil {
		t.ContactPhone = strings.TrimSpace(*u.ContactPhone)
	}
	switch {
	case u.ClearDomain:
		t.Domain = nil
	case u.Domain != nil:
		d := strings.ToLower(strings.TrimSpace(*u.Domain))
		t.Domain = &d
	}
	if u.Subdomain != nil {
		t.Subdomain = strings.ToLower(strings.TrimSpace(*u.Subdomain))
	}
	if u.IsActive != nil {
		if err := t.CanSetActive(*u.IsActive); err != nil {
			return err
		}
		if *u.IsActive {
			t.Status = TenantStatusActive
		} else {
			t.Status = TenantStatusInactive
		}
	}
	t.UpdatedAt = now
	return t.Validate()
}

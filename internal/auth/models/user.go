package models

import (
	"strings"
	"time"

	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
)

const maxUsernameLength = 150

// User is an account inside exactly one tenant. Every authorization decision
// reads TenantID and Role.
//
// Invariants:
//   - TenantID is set
//   - Username is non-empty and unique within the tenant
//   - Role is one of store_owner, staff, customer
type User struct {
	ID           id.UserID
	TenantID     id.TenantID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	Role         id.Role
	PasswordHash string
	IsSuperuser  bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile carries the optional contact fields set at registration.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

func NewUser(userID id.UserID, tenantID id.TenantID, username string, role id.Role, passwordHash string, profile Profile, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if tenantID.IsNil() {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "tenant_id", "user must belong to a tenant")
	}
	if username == "" {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "username", "username cannot be empty")
	}
	if len(username) > maxUsernameLength {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "username", "username must be 150 characters or less")
	}
	if !role.Valid() {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "role", "invalid role")
	}
	if passwordHash == "" {
		return nil, dErrors.NewField(dErrors.CodeInvariantViolation, "password", "password hash cannot be empty")
	}
	return &User{
		ID:           userID,
		TenantID:     tenantID,
		Username:     username,
		Email:        strings.TrimSpace(profile.Email),
		FirstName:    strings.TrimSpace(profile.FirstName),
		LastName:     strings.TrimSpace(profile.LastName),
		Phone:        strings.TrimSpace(profile.Phone),
		Address:      strings.TrimSpace(profile.Address),
		Role:         role,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// DisplayName is the full name, or the username when no name is set.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

func (u *User) IsStaff() bool {
	return u.Role == id.RoleStaff
}

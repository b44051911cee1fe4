package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
)

func TestNewUser(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	now := time.Now()

	t.Run("builds an active user", func(t *testing.T) {
		u, err := NewUser(id.UserID(uuid.New()), tenantID, " alice ", id.RoleCustomer, "hash", Profile{FirstName: "Alice"}, now)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
		assert.True(t, u.IsActive)
		assert.False(t, u.IsSuperuser)
	})

	cases := []struct {
		name     string
		tenantID id.TenantID
		username string
		role     id.Role
		hash     string
		field    string
	}{
		{"missing tenant", id.TenantID{}, "alice", id.RoleCustomer, "hash", "tenant_id"},
		{"blank username", tenantID, "  ", id.RoleCustomer, "hash", "username"},
		{"unknown role", tenantID, "alice", id.Role("admin"), "hash", "role"},
		{"missing hash", tenantID, "alice", id.RoleStaff, "", "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewUser(id.UserID(uuid.New()), tc.tenantID, tc.username, tc.role, tc.hash, Profile{}, now)
			de, ok := dErrors.As(err)
			require.True(t, ok)
			assert.Equal(t, dErrors.CodeInvariantViolation, de.Code)
			assert.Equal(t, tc.field, de.Field)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{Username: "ada", FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "ada", (&User{Username: "ada"}).DisplayName())
}

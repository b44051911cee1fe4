// Package domain holds the identity primitives shared by every module: typed
// IDs and the closed set of user roles.
//
// Typed IDs make it a compile error to pass a ProductID where a TenantID is
// expected, which keeps tenant scoping explicit at every call site.
package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "storefront/pkg/domain-errors"
)

type (
	TenantID    uuid.UUID
	UserID      uuid.UUID
	ProductID   uuid.UUID
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
)

// maxIDLength bounds input before it reaches uuid.Parse ("urn:uuid:" + 36).
const maxIDLength = 45

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID("tenant ID", s)
	return TenantID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user ID", s)
	return UserID(u), err
}

func ParseProductID(s string) (ProductID, error) {
	u, err := parseUUID("product ID", s)
	return ProductID(u), err
}

func ParseOrderID(s string) (OrderID, error) {
	u, err := parseUUID("order ID", s)
	return OrderID(u), err
}

func (id TenantID) String() string { return uuid.UUID(id).String() }
func (id TenantID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id TenantID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *TenantID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id ProductID) String() string { return uuid.UUID(id).String() }
func (id ProductID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ProductID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ProductID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id OrderID) String() string { return uuid.UUID(id).String() }
func (id OrderID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id OrderID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *OrderID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id OrderItemID) String() string { return uuid.UUID(id).String() }

func (id OrderItemID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *OrderItemID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

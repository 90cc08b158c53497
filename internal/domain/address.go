package domain

import (
	"time"

	"github.com/google/uuid"
)

// AddressType distinguishes shipping from billing entries.
type AddressType string

const (
	AddressTypeShipping AddressType = "SHIPPING"
	AddressTypeBilling  AddressType = "BILLING"
	AddressTypeBoth     AddressType = "BOTH"
)

// Address is owned by exactly one user. At most one address per user carries
// IsDefault=true; when the user has any addresses, exactly one must.
type Address struct {
	AddressID  uuid.UUID
	UserID     uuid.UUID
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Type       AddressType
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidAddressType reports whether the wire value is a known address type.
func ValidAddressType(t AddressType) bool {
	switch t {
	case AddressTypeShipping, AddressTypeBilling, AddressTypeBoth:
		return true
	default:
		return false
	}
}

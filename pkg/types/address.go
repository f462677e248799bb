package types

import (
	"database/sql/driver"

	"github.com/rbhardware/shop-backend/pkg/enums"
)

// Address is a saved delivery address embedded in the user row.
type Address struct {
	ID        string            `json:"_id"`
	Type      enums.AddressType `json:"type"`
	Name      string            `json:"name"`
	Phone     string            `json:"phone"`
	Street    string            `json:"street"`
	City      string            `json:"city"`
	State     string            `json:"state"`
	ZipCode   string            `json:"zipCode"`
	IsDefault bool              `json:"isDefault"`
}

// AddressList is the ordered address book persisted as JSONB.
type AddressList []Address

// Value serializes the list to JSON.
func (a AddressList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return jsonValue([]Address(a))
}

// Scan decodes JSONB into the list.
func (a *AddressList) Scan(value interface{}) error {
	if value == nil {
		*a = AddressList{}
		return nil
	}
	decoded := AddressList{}
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*a = decoded
	return nil
}

// Default returns the default address, if any.
func (a AddressList) Default() (Address, bool) {
	for _, addr := range a {
		if addr.IsDefault {
			return addr, true
		}
	}
	return Address{}, false
}

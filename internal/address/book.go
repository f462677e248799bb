package address

import (
	"strings"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/pkg/enums"
	"github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

const (
	msgMissingFields = "Please provide all required address fields"
	msgNotFound      = "Address not found"
	msgInvalidType   = "Invalid address type"
)

// Input carries a new address as posted by the client.
type Input struct {
	Type      string `json:"type"`
	Name      string `json:"name" validate:"required,notblank"`
	Phone     string `json:"phone" validate:"required,notblank"`
	Street    string `json:"street" validate:"required,notblank"`
	City      string `json:"city" validate:"required,notblank"`
	State     string `json:"state" validate:"required,notblank"`
	ZipCode   string `json:"zipCode" validate:"required,notblank"`
	IsDefault bool   `json:"isDefault"`
}

func (Input) ValidationMessage(field, tag string) string {
	return msgMissingFields
}

// Patch is a partial update. Empty strings leave the stored value untouched.
type Patch struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	IsDefault *bool  `json:"isDefault"`
}

// Add appends a new address. The first address, or one flagged isDefault,
// becomes the single default.
func Add(list types.AddressList, in Input) (types.AddressList, types.Address, error) {
	if err := validators.Struct(in); err != nil {
		return list, types.Address{}, err
	}
	addrType, err := parseType(in.Type)
	if err != nil {
		return list, types.Address{}, err
	}

	created := types.Address{
		ID:        uuid.NewString(),
		Type:      addrType,
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		IsDefault: in.IsDefault,
	}

	out := clone(list)
	if created.IsDefault || len(out) == 0 {
		created.IsDefault = true
		for i := range out {
			out[i].IsDefault = false
		}
	}
	out = append(out, created)
	out = EnsureSingleDefault(out)
	return out, out[len(out)-1], nil
}

// Update applies patch to the address with id.
func Update(list types.AddressList, id string, patch Patch) (types.AddressList, types.Address, error) {
	idx := indexOf(list, id)
	if idx < 0 {
		return list, types.Address{}, errors.New(errors.CodeNotFound, msgNotFound)
	}

	out := clone(list)
	target := &out[idx]
	if patch.Type != "" {
		addrType, err := parseType(patch.Type)
		if err != nil {
			return list, types.Address{}, err
		}
		target.Type = addrType
	}
	setIfPresent(&target.Name, patch.Name)
	setIfPresent(&target.Phone, patch.Phone)
	setIfPresent(&target.Street, patch.Street)
	setIfPresent(&target.City, patch.City)
	setIfPresent(&target.State, patch.State)
	setIfPresent(&target.ZipCode, patch.ZipCode)

	if patch.IsDefault != nil {
		wasDefault := target.IsDefault
		switch {
		case *patch.IsDefault && !wasDefault:
			markDefault(out, idx)
		case !*patch.IsDefault && wasDefault && len(out) > 1:
			for i := range out {
				if i != idx {
					out[i].IsDefault = true
					break
				}
			}
			out[idx].IsDefault = false
		default:
			out[idx].IsDefault = *patch.IsDefault
		}
	}

	out = EnsureSingleDefault(out)
	return out, out[idx], nil
}

// Delete removes the address with id. When the default goes, the first
// remaining address takes over.
func Delete(list types.AddressList, id string) (types.AddressList, error) {
	idx := indexOf(list, id)
	if idx < 0 {
		return list, errors.New(errors.CodeNotFound, msgNotFound)
	}
	wasDefault := list[idx].IsDefault

	out := make(types.AddressList, 0, len(list)-1)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	if wasDefault && len(out) > 0 {
		out[0].IsDefault = true
	}
	return EnsureSingleDefault(out), nil
}

// SetDefault moves the default flag to the address with id. alreadyDefault
// reports a no-op.
func SetDefault(list types.AddressList, id string) (out types.AddressList, addr types.Address, alreadyDefault bool, err error) {
	idx := indexOf(list, id)
	if idx < 0 {
		return list, types.Address{}, false, errors.New(errors.CodeNotFound, msgNotFound)
	}
	if list[idx].IsDefault {
		return list, list[idx], true, nil
	}
	out = clone(list)
	markDefault(out, idx)
	out = EnsureSingleDefault(out)
	return out, out[idx], false, nil
}

// EnsureSingleDefault restores the invariant that a non-empty list has exactly
// one default: the first flagged address wins, and with none flagged the first
// address is promoted.
func EnsureSingleDefault(list types.AddressList) types.AddressList {
	if len(list) == 0 {
		return list
	}
	found := false
	for i := range list {
		if list[i].IsDefault {
			if found {
				list[i].IsDefault = false
			}
			found = true
		}
	}
	if !found {
		list[0].IsDefault = true
	}
	return list
}

func parseType(raw string) (enums.AddressType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return enums.AddressTypeHome, nil
	}
	addrType, err := enums.ParseAddressType(raw)
	if err != nil {
		return "", errors.Wrap(errors.CodeValidation, err, msgInvalidType)
	}
	return addrType, nil
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func markDefault(list types.AddressList, idx int) {
	for i := range list {
		list[i].IsDefault = i == idx
	}
}

func indexOf(list types.AddressList, id string) int {
	for i, addr := range list {
		if addr.ID == id {
			return i
		}
	}
	return -1
}

func clone(list types.AddressList) types.AddressList {
	out := make(types.AddressList, len(list), len(list)+1)
	copy(out, list)
	return out
}

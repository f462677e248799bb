package cart

import (
	"strings"
	"time"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

const (
	msgMissingFields  = "Missing required fields"
	msgInvalidUpdate  = "Invalid item ID or quantity"
	msgItemNotFound   = "Item not found in cart"
	msgGuestSessionID = "guest session is required"
)

// AddInput is an item to place in a cart. Price is the snapshot the client saw.
type AddInput struct {
	ProductID string       `json:"productId" validate:"required,notblank"`
	Name      string       `json:"name" validate:"required,notblank"`
	Price     *types.Money `json:"price" validate:"required,gt=0"`
	Quantity  int          `json:"quantity" validate:"required,gt=0"`
	Image     string       `json:"image"`
	Color     *string      `json:"color"`
	Size      *string      `json:"size"`
}

// ValidationMessage reports every failing field as a missing one.
func (AddInput) ValidationMessage(field, tag string) string {
	return msgMissingFields
}

// InputFromItem turns an existing line back into an AddInput.
func InputFromItem(item types.CartItem) AddInput {
	price := item.Price
	return AddInput{
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     &price,
		Quantity:  item.Quantity,
		Image:     item.Image,
		Color:     item.Color,
		Size:      item.Size,
	}
}

// IDFunc mints the id of a new cart line.
type IDFunc func(cart types.Cart, now time.Time) string

// Add places in into the cart. A line with the same (productId, color, size)
// absorbs the quantity instead of creating a duplicate.
func Add(c types.Cart, in AddInput, newID IDFunc, now time.Time) (types.Cart, error) {
	if err := validators.Struct(in); err != nil {
		return c, err
	}
	out := copyCart(c)
	color, size := variant(in.Color), variant(in.Size)
	productID := strings.TrimSpace(in.ProductID)

	if idx := findLine(out.Items, productID, color, size); idx >= 0 {
		out.Items[idx].Quantity += in.Quantity
		return Recompute(out, now), nil
	}

	out.Items = append(out.Items, types.CartItem{
		ID:        newID(out, now),
		ProductID: productID,
		Name:      strings.TrimSpace(in.Name),
		Price:     types.NewMoney(in.Price.Decimal),
		Quantity:  in.Quantity,
		Image:     in.Image,
		Color:     color,
		Size:      size,
	})
	return Recompute(out, now), nil
}

// ValidateQuantityUpdate checks an update request before any cart is loaded.
func ValidateQuantityUpdate(itemID string, quantity int) error {
	if strings.TrimSpace(itemID) == "" || quantity < 1 {
		return errors.New(errors.CodeValidation, msgInvalidUpdate)
	}
	return nil
}

// UpdateQuantity sets the quantity of the line with itemID.
func UpdateQuantity(c types.Cart, itemID string, quantity int, now time.Time) (types.Cart, error) {
	if err := ValidateQuantityUpdate(itemID, quantity); err != nil {
		return c, err
	}
	idx := indexOf(c.Items, itemID)
	if idx < 0 {
		return c, errors.New(errors.CodeNotFound, msgItemNotFound)
	}
	out := copyCart(c)
	out.Items[idx].Quantity = quantity
	return Recompute(out, now), nil
}

// Remove drops the line with itemID. Removing an absent line is a no-op.
func Remove(c types.Cart, itemID string, now time.Time) types.Cart {
	out := copyCart(c)
	kept := out.Items[:0]
	for _, item := range out.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	out.Items = kept
	return Recompute(out, now)
}

// Clear empties the cart.
func Clear(c types.Cart, now time.Time) types.Cart {
	out := copyCart(c)
	out.Items = []types.CartItem{}
	return Recompute(out, now)
}

// Contains reports whether the cart holds a line with itemID.
func Contains(c types.Cart, itemID string) bool {
	return indexOf(c.Items, itemID) >= 0
}

// Recompute derives totalAmount from the lines and stamps lastUpdated.
func Recompute(c types.Cart, now time.Time) types.Cart {
	if c.Items == nil {
		c.Items = []types.CartItem{}
	}
	total := types.Money{}
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	c.TotalAmount = total
	stamp := now.UTC()
	c.LastUpdated = &stamp
	return c
}

func findLine(items []types.CartItem, productID string, color, size *string) int {
	for i, item := range items {
		if item.ProductID == productID && sameVariant(item.Color, color) && sameVariant(item.Size, size) {
			return i
		}
	}
	return -1
}

func indexOf(items []types.CartItem, itemID string) int {
	for i, item := range items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// variant normalizes an empty discriminator to nil so "" and null dedup together.
func variant(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameVariant(a, b *string) bool {
	a, b = variant(a), variant(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyCart(c types.Cart) types.Cart {
	items := make([]types.CartItem, len(c.Items), len(c.Items)+1)
	copy(items, c.Items)
	c.Items = items
	return c
}

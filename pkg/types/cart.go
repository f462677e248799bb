package types

import (
	"database/sql/driver"
	"time"
)

// CartItem is a line in a cart. Price is captured when the item is added and
// is not synced with later product changes.
type CartItem struct {
	ID        string  `json:"_id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     Money   `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	Color     *string `json:"color"`
	Size      *string `json:"size"`
}

// Subtotal returns price multiplied by quantity.
func (i CartItem) Subtotal() Money {
	return i.Price.Mul(i.Quantity)
}

// Cart holds line items and the derived total.
type Cart struct {
	Items       []CartItem `json:"items"`
	TotalAmount Money      `json:"totalAmount"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// Value serializes the cart to JSON.
func (c Cart) Value() (driver.Value, error) {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	return jsonValue(c)
}

// Scan decodes JSONB into the cart.
func (c *Cart) Scan(value interface{}) error {
	decoded := Cart{Items: []CartItem{}}
	if value != nil {
		if err := scanJSON(value, &decoded); err != nil {
			return err
		}
	}
	if decoded.Items == nil {
		decoded.Items = []CartItem{}
	}
	*c = decoded
	return nil
}

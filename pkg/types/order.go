package types

import (
	"database/sql/driver"
	"time"

	"github.com/rbhardware/shop-backend/pkg/enums"
)

// OrderItem is an immutable copy of a cart line taken at checkout.
type OrderItem struct {
	ID        string  `json:"_id,omitempty"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     Money   `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	Color     *string `json:"color"`
	Size      *string `json:"size"`
}

// PaymentDetails records what is known about the order's payment.
type PaymentDetails struct {
	ID     *string             `json:"id"`
	Status enums.PaymentStatus `json:"status"`
	Method string              `json:"method"`
}

// StatusHistoryEntry is one append-only record of an order status change.
type StatusHistoryEntry struct {
	Status    enums.OrderStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Comment   string            `json:"comment,omitempty"`
}

// Order is an order snapshot embedded in the owning user row.
type Order struct {
	ID                string               `json:"_id"`
	OrderID           string               `json:"orderId"`
	Items             []OrderItem          `json:"items"`
	ShippingAddress   Address              `json:"shippingAddress"`
	PaymentMethod     string               `json:"paymentMethod"`
	PaymentDetails    PaymentDetails       `json:"paymentDetails"`
	TotalAmount       Money                `json:"totalAmount"`
	Status            enums.OrderStatus    `json:"status"`
	StatusHistory     []StatusHistoryEntry `json:"statusHistory"`
	EstimatedDelivery *time.Time           `json:"estimatedDelivery,omitempty"`
	Notes             *string              `json:"notes"`
	CreatedAt         *time.Time           `json:"createdAt,omitempty"`
}

// PlacedAt returns createdAt, falling back to the first history entry and
// finally the zero Unix time.
func (o Order) PlacedAt() time.Time {
	if o.CreatedAt != nil && !o.CreatedAt.IsZero() {
		return *o.CreatedAt
	}
	if len(o.StatusHistory) > 0 && !o.StatusHistory[0].Timestamp.IsZero() {
		return o.StatusHistory[0].Timestamp
	}
	return time.Unix(0, 0).UTC()
}

// OrderList is a user's orders, newest first, persisted as JSONB.
type OrderList []Order

// Value serializes the list to JSON.
func (o OrderList) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	return jsonValue([]Order(o))
}

// Scan decodes JSONB into the list.
func (o *OrderList) Scan(value interface{}) error {
	if value == nil {
		*o = OrderList{}
		return nil
	}
	decoded := OrderList{}
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*o = decoded
	return nil
}

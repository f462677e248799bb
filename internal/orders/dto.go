package orders

import (
	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/pkg/types"
)

// Customer is the owner summary attached to admin order listings.
type Customer struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone *string   `json:"phone"`
}

// AdminOrder is an order annotated with the customer who placed it.
type AdminOrder struct {
	types.Order
	User Customer `json:"user"`
}

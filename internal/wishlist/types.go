package wishlist

import (
	product "github.com/rbhardware/shop-backend/internal/products"
)

// WishlistDTO lists the saved product ids in the order they were added,
// together with the products that still exist.
type WishlistDTO struct {
	ProductIDs []string             `json:"productIds"`
	Products   []product.ProductDTO `json:"products"`
}

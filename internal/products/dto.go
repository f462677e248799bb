package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/pkg/db/models"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// ProductDTO is the storefront product payload. Linked products are resolved
// to summaries; dangling references are dropped.
type ProductDTO struct {
	ID             uuid.UUID       `json:"_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          types.Money     `json:"price"`
	Images         []string        `json:"images"`
	LinkedProducts []LinkedSummary `json:"linkedProducts"`
	Color          string          `json:"color"`
	ColorCode      string          `json:"colorCode"`
	Category       string          `json:"category"`
	Material       string          `json:"material"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// LinkedSummary is the slice of a linked product shown next to its parent.
type LinkedSummary struct {
	ID     uuid.UUID   `json:"_id"`
	Name   string      `json:"name"`
	Images []string    `json:"images"`
	Price  types.Money `json:"price"`
}

// CreateProductInput is the body of POST /plist/addproduct.
type CreateProductInput struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Price          *types.Money `json:"price"`
	Images         []string     `json:"images"`
	LinkedProducts []string     `json:"linkedProducts"`
	Color          string       `json:"color"`
	ColorCode      string       `json:"colorCode"`
	Category       string       `json:"category"`
	Material       string       `json:"material"`
}

// UpdateProductInput carries a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Price       *types.Money `json:"price"`
	Images      *[]string    `json:"images"`
	Color       *string      `json:"color"`
	ColorCode   *string      `json:"colorCode"`
	Category    *string      `json:"category"`
	Material    *string      `json:"material"`
}

// NewProductDTO builds a DTO from the persisted model and the linked rows
// already loaded for it.
func NewProductDTO(product *models.Product, linked map[string]models.Product) ProductDTO {
	dto := ProductDTO{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		Price:          product.Price,
		Images:         append([]string{}, product.Images...),
		LinkedProducts: []LinkedSummary{},
		Color:          product.Color,
		ColorCode:      product.ColorCode,
		Category:       product.Category,
		Material:       product.Material,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
	for _, id := range product.LinkedProducts {
		row, ok := linked[id]
		if !ok {
			continue
		}
		dto.LinkedProducts = append(dto.LinkedProducts, LinkedSummary{
			ID:     row.ID,
			Name:   row.Name,
			Images: append([]string{}, row.Images...),
			Price:  row.Price,
		})
	}
	return dto
}

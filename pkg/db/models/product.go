package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/pkg/types"
)

// Product is a catalog listing.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name           string           `gorm:"column:name;not null"`
	Description    string           `gorm:"column:description;not null"`
	Price          types.Money      `gorm:"column:price;type:numeric(12,2);not null"`
	Images         types.StringList `gorm:"column:images;type:jsonb;not null;default:'[]'"`
	LinkedProducts types.StringList `gorm:"column:linked_products;type:jsonb;not null;default:'[]'"`
	Color          string           `gorm:"column:color;not null"`
	ColorCode      string           `gorm:"column:color_code;not null"`
	Category       string           `gorm:"column:category;not null;index"`
	Material       string           `gorm:"column:material;not null"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

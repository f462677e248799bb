package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/pkg/enums"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// User is the customer aggregate root. Addresses, cart, orders and wishlist
// are embedded JSONB documents written together with the row; Version guards
// every read-modify-write of the aggregate.
type User struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string            `gorm:"column:name;not null"`
	Email                string            `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash         string            `gorm:"column:password_hash;not null"`
	Phone                *string           `gorm:"column:phone"`
	Role                 enums.UserRole    `gorm:"column:role;type:text;not null;default:'user'"`
	IsVerified           bool              `gorm:"column:is_verified;not null;default:false"`
	PasswordResetToken   *string           `gorm:"column:password_reset_token;index"`
	PasswordResetExpires *time.Time        `gorm:"column:password_reset_expires"`
	LastLoginAt          *time.Time        `gorm:"column:last_login_at"`
	Preferences          types.JSONMap     `gorm:"column:preferences;type:jsonb;not null;default:'{}'"`
	Addresses            types.AddressList `gorm:"column:addresses;type:jsonb;not null;default:'[]'"`
	Cart                 types.Cart        `gorm:"column:cart;type:jsonb;not null"`
	Orders               types.OrderList   `gorm:"column:orders;type:jsonb;not null;default:'[]'"`
	Wishlist             types.StringList  `gorm:"column:wishlist;type:jsonb;not null;default:'[]'"`
	Version              int               `gorm:"column:version;not null;default:1"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

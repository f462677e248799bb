package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/pkg/db/models"
	"github.com/rbhardware/shop-backend/pkg/enums"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"_id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Phone       *string        `json:"phone"`
	Role        enums.UserRole `json:"role"`
	IsVerified  bool           `json:"isVerified"`
	Preferences types.JSONMap  `json:"preferences,omitempty"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// SummaryDTO is the compact identity returned at login and attached to admin order listings.
type SummaryDTO struct {
	ID    uuid.UUID      `json:"_id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Phone *string        `json:"phone,omitempty"`
	Role  enums.UserRole `json:"role,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
	Role         enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		Preferences: u.Preferences,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func SummaryFromModel(u *models.User) SummaryDTO {
	return SummaryDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleUser
	}

	return &models.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(c.Name),
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
		Role:         role,
		Preferences:  types.JSONMap{},
		Addresses:    types.AddressList{},
		Cart:         emptyCart(),
		Orders:       types.OrderList{},
		Wishlist:     types.StringList{},
		Version:      1,
	}
}

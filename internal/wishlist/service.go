package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/rbhardware/shop-backend/internal/products"
	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
)

// UserStore is the slice of the users repository the wishlist needs.
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Mutate(ctx context.Context, id uuid.UUID, fn users.MutateFunc) (*models.User, error)
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Users    UserStore
	Products productReader
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, userID uuid.UUID) (WishlistDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, rawProductID string) (WishlistDTO, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, rawProductID string) (WishlistDTO, error)
}

type service struct {
	users    UserStore
	products productReader
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product reader is required")
	}
	return &service{users: params.Users, products: params.Products}, nil
}

func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID) (WishlistDTO, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return WishlistDTO{}, err
	}
	return s.present(ctx, user.Wishlist)
}

// AddItem ensures the product exists and saves it. Saving twice is a no-op.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, rawProductID string) (WishlistDTO, error) {
	productID, err := parseProductID(rawProductID)
	if err != nil {
		return WishlistDTO{}, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WishlistDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	key := productID.String()
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return WishlistDTO{}, err
	}
	if contains(user.Wishlist, key) {
		return s.present(ctx, user.Wishlist)
	}
	user, err = s.users.Mutate(ctx, userID, func(u *models.User) error {
		if !contains(u.Wishlist, key) {
			u.Wishlist = append(u.Wishlist, key)
		}
		return nil
	})
	if err != nil {
		return WishlistDTO{}, err
	}
	return s.present(ctx, user.Wishlist)
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, rawProductID string) (WishlistDTO, error) {
	productID, err := parseProductID(rawProductID)
	if err != nil {
		return WishlistDTO{}, err
	}
	key := productID.String()
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return WishlistDTO{}, err
	}
	if !contains(user.Wishlist, key) {
		return s.present(ctx, user.Wishlist)
	}
	user, err = s.users.Mutate(ctx, userID, func(u *models.User) error {
		kept := u.Wishlist[:0]
		for _, id := range u.Wishlist {
			if id != key {
				kept = append(kept, id)
			}
		}
		u.Wishlist = kept
		return nil
	})
	if err != nil {
		return WishlistDTO{}, err
	}
	return s.present(ctx, user.Wishlist)
}

func (s *service) present(ctx context.Context, saved []string) (WishlistDTO, error) {
	out := WishlistDTO{ProductIDs: append([]string{}, saved...), Products: []product.ProductDTO{}}
	ids := make([]uuid.UUID, 0, len(saved))
	for _, raw := range saved {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist products")
	}
	byID := make(map[string]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID.String()] = row
	}
	for _, raw := range saved {
		row, ok := byID[raw]
		if !ok {
			continue
		}
		out.Products = append(out.Products, product.NewProductDTO(&row, nil))
	}
	return out, nil
}

func parseProductID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid product ID")
	}
	return id, nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

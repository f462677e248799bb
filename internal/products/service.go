package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

const (
	msgRequiredFields    = "All required fields must be provided"
	msgInvalidProductID  = "Invalid product ID"
	msgProductNotFound   = "Product not found"
	msgMissingLinked     = "One or more linked products do not exist"
	msgNegativePrice     = "Price cannot be negative"
	msgInvalidLinkedID   = "Invalid linked product ID"
	msgSelfLinkedProduct = "A product cannot be linked to itself"
)

// Service exposes catalog product operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	GetProduct(ctx context.Context, rawID string) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, rawID string, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, rawID string) error
	UpdateLinkedProducts(ctx context.Context, rawID string, linked []string) (*ProductDTO, error)
	Exists(ctx context.Context, rawID string) (bool, error)
}

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies of the product service.
type ServiceParams struct {
	Products *Repository
	Users    *users.Repository
	Tx       TxRunner
}

type service struct {
	repo  *Repository
	users *users.Repository
	tx    TxRunner
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: params.Products, users: params.Users, tx: params.Tx}, nil
}

// CreateProduct validates and stores a new listing. Every field except the
// linked products is required.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	linked, err := s.resolveLinked(ctx, uuid.Nil, input.LinkedProducts)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:           strings.TrimSpace(input.Name),
		Description:    strings.TrimSpace(input.Description),
		Price:          types.NewMoney(input.Price.Decimal),
		Images:         types.StringList(append([]string{}, input.Images...)),
		LinkedProducts: linked,
		Color:          strings.TrimSpace(input.Color),
		ColorCode:      strings.TrimSpace(input.ColorCode),
		Category:       strings.TrimSpace(input.Category),
		Material:       strings.TrimSpace(input.Material),
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return s.present(ctx, created)
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	var refs []uuid.UUID
	for _, row := range rows {
		refs = append(refs, parseIDs(row.LinkedProducts)...)
	}
	linked, err := s.loadLinked(ctx, refs)
	if err != nil {
		return nil, err
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i], linked))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, rawID string) (*ProductDTO, error) {
	product, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, product)
}

func (s *service) UpdateProduct(ctx context.Context, rawID string, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNegativePrice)
	}
	if err := applyUpdateToProduct(product, input); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return s.present(ctx, updated)
}

// DeleteProduct removes the product and, in the same transaction, drops its id
// from linked lists and wishlists.
func (s *service) DeleteProduct(ctx context.Context, rawID string) error {
	id, err := parseProductID(rawID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.repo.WithTx(tx)
		deleted, err := products.DeleteProduct(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		if _, err := products.UnlinkProduct(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: unlink deleted product")
		}
		if _, err := s.users.WithTx(tx).RemoveFromWishlists(ctx, id.String()); err != nil {
			if errors.Is(err, users.ErrVersionConflict) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "concurrent update, please retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: prune wishlists")
		}
		return nil
	})
}

// UpdateLinkedProducts replaces the linked list after checking every id exists.
func (s *service) UpdateLinkedProducts(ctx context.Context, rawID string, linked []string) (*ProductDTO, error) {
	product, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	resolved, err := s.resolveLinked(ctx, product.ID, linked)
	if err != nil {
		return nil, err
	}
	product.LinkedProducts = resolved
	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update linked products")
	}
	return s.present(ctx, updated)
}

// Exists reports whether rawID names a stored product. Malformed ids are a
// validation error.
func (s *service) Exists(ctx context.Context, rawID string) (bool, error) {
	id, err := parseProductID(rawID)
	if err != nil {
		return false, err
	}
	count, err := s.repo.CountExisting(ctx, []uuid.UUID{id})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	return count > 0, nil
}

func (s *service) load(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := parseProductID(rawID)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) present(ctx context.Context, product *models.Product) (*ProductDTO, error) {
	linked, err := s.loadLinked(ctx, parseIDs(product.LinkedProducts))
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(product, linked)
	return &dto, nil
}

func (s *service) loadLinked(ctx context.Context, ids []uuid.UUID) (map[string]models.Product, error) {
	out := map[string]models.Product{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.repo.FindByIDs(ctx, dedupeIDs(ids))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load linked products")
	}
	for _, row := range rows {
		out[row.ID.String()] = row
	}
	return out, nil
}

// resolveLinked normalizes and verifies linked ids. self is excluded from the
// allowed set; pass uuid.Nil for a product that does not exist yet.
func (s *service) resolveLinked(ctx context.Context, self uuid.UUID, raw []string) (types.StringList, error) {
	out := types.StringList{}
	if len(raw) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidLinkedID)
		}
		if self != uuid.Nil && id == self {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgSelfLinkedProduct)
		}
		ids = append(ids, id)
	}
	ids = dedupeIDs(ids)

	count, err := s.repo.CountExisting(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check linked products")
	}
	if int(count) != len(ids) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgMissingLinked)
	}
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out, nil
}

func validateCreate(input CreateProductInput) error {
	required := []string{input.Name, input.Description, input.Color, input.ColorCode, input.Category, input.Material}
	for _, value := range required {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, msgRequiredFields)
		}
	}
	if input.Images == nil || input.Price == nil || input.Price.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, msgRequiredFields)
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, msgNegativePrice)
	}
	return nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) error {
	assign := func(dst *string, src *string) error {
		if src == nil {
			return nil
		}
		value := strings.TrimSpace(*src)
		if value == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, msgRequiredFields)
		}
		*dst = value
		return nil
	}
	for _, pair := range []struct {
		dst *string
		src *string
	}{
		{&product.Name, input.Name},
		{&product.Description, input.Description},
		{&product.Color, input.Color},
		{&product.ColorCode, input.ColorCode},
		{&product.Category, input.Category},
		{&product.Material, input.Material},
	} {
		if err := assign(pair.dst, pair.src); err != nil {
			return err
		}
	}
	if input.Price != nil {
		product.Price = types.NewMoney(input.Price.Decimal)
	}
	if input.Images != nil {
		product.Images = types.StringList(append([]string{}, (*input.Images)...))
	}
	return nil
}

func parseProductID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidProductID)
	}
	return id, nil
}

func parseIDs(values []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		if id, err := uuid.Parse(value); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

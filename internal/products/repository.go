package product

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/pkg/db/models"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// Repository wires together the product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a single product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every product whose id is listed. Missing ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// List returns products matching the filters, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	var rows []models.Product
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if v := strings.TrimSpace(filters.Category); v != "" {
		query = query.Where("category = ?", v)
	}
	if v := strings.TrimSpace(filters.Color); v != "" {
		query = query.Where("color = ?", v)
	}
	if v := strings.TrimSpace(filters.Material); v != "" {
		query = query.Where("material = ?", v)
	}
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct writes every column of an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product by ID and reports whether a row was deleted.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// UnlinkProduct removes id from the linked list of every product that
// references it and returns how many rows changed.
func (r *Repository) UnlinkProduct(ctx context.Context, id uuid.UUID) (int, error) {
	key := id.String()
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Select("id", "linked_products").
		Where("CAST(linked_products AS TEXT) LIKE ?", `%"`+key+`"%`).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, row := range rows {
		kept := make(types.StringList, 0, len(row.LinkedProducts))
		for _, linked := range row.LinkedProducts {
			if linked != key {
				kept = append(kept, linked)
			}
		}
		if len(kept) == len(row.LinkedProducts) {
			continue
		}
		err := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"linked_products": kept, "updated_at": time.Now().UTC()}).Error
		if err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// CountExisting returns how many of ids exist.
func (r *Repository) CountExisting(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

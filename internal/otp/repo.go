package otp

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/pkg/db/models"
)

// Repository persists one-time email codes.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds an OTP repository to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a code for email that stops being valid at expiresAt.
func (r *Repository) Create(ctx context.Context, email, code string, expiresAt time.Time) (*models.OTP, error) {
	record := &models.OTP{
		ID:        uuid.New(),
		Email:     normalizeEmail(email),
		Code:      code,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindValid returns the matching code for email that has not expired at now.
func (r *Repository) FindValid(ctx context.Context, email, code string, now time.Time) (*models.OTP, error) {
	var record models.OTP
	err := r.db.WithContext(ctx).
		Where("email = ? AND otp = ? AND expires_at > ?", normalizeEmail(email), code, now.UTC()).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes a consumed code.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OTP{}, "id = ?", id).Error
}

// DeleteExpired purges every code that expired at or before now.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.OTP{})
	return res.RowsAffected, res.Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

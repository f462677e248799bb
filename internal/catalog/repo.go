package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is one filter value. Code is only stored for categories.
type Entry struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey" json:"_id"`
	Code      *string   `gorm:"column:code" json:"id,omitempty"`
	Name      string    `gorm:"column:name" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// Repository reads and writes the table of one Kind.
type Repository struct {
	db   *gorm.DB
	kind Kind
}

// NewRepository binds a repository to kind's table.
func NewRepository(db *gorm.DB, kind Kind) *Repository {
	return &Repository{db: db, kind: kind}
}

func (r *Repository) table(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx).Table(r.kind.Table)
	if r.kind.HasCode {
		return query.Select("id", "code", "name", "created_at", "updated_at")
	}
	return query.Select("id", "name", "created_at", "updated_at")
}

// List returns every entry ordered by name.
func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	var rows []Entry
	err := r.table(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// FindByID loads one entry.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	var row Entry
	if err := r.table(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts entry, stamping id and timestamps.
func (r *Repository) Create(ctx context.Context, entry *Entry, now time.Time) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return r.table(ctx).Create(entry).Error
}

// Update rewrites name (and code for categories). It reports whether the row exists.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name string, code *string, now time.Time) (bool, error) {
	updates := map[string]any{
		"name":       name,
		"updated_at": now,
	}
	if r.kind.HasCode && code != nil {
		updates["code"] = *code
	}
	res := r.db.WithContext(ctx).Table(r.kind.Table).Where("id = ?", id).Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// Delete removes the entry when present.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Table(r.kind.Table).Where("id = ?", id).Delete(&Entry{}).Error
}

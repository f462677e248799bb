package users

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// maxMutateAttempts bounds how often Mutate reloads after losing a version race.
const maxMutateAttempts = 5

// ErrVersionConflict is returned by Save when the row changed since it was loaded.
var ErrVersionConflict = errors.New("users: version conflict")

// MutateFunc edits a loaded user aggregate in memory.
type MutateFunc func(user *models.User) error

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
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

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Get loads a user by id and maps a missing row to a NotFound error.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

// FindByResetToken loads the user holding an unexpired password reset token hash.
func (r *Repository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("password_reset_token = ? AND password_reset_expires > ?", tokenHash, now).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTakenByOther reports whether another user already owns email.
func (r *Repository) EmailTakenByOther(ctx context.Context, email string, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND id <> ?", strings.ToLower(strings.TrimSpace(email)), id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListIDs returns up to limit user ids ordered by id, starting after the given id.
func (r *Repository) ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.User{}).Order("id ASC").Limit(limit)
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindOrderHolders loads the identity and order columns of the given users.
func (r *Repository) FindOrderHolders(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var out []models.User
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Select("id", "name", "email", "phone", "orders", "created_at").
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindIDByOrderRef returns the id of the user owning the order whose orderId
// or internal _id equals ref.
func (r *Repository) FindIDByOrderRef(ctx context.Context, ref string) (uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.User{})
	if r.db.Dialector.Name() == "sqlite" {
		query = query.Where(
			"EXISTS (SELECT 1 FROM json_each(users.orders) WHERE json_extract(json_each.value, '$.orderId') = ? OR json_extract(json_each.value, '$._id') = ?)",
			ref, ref,
		)
	} else {
		byOrderID, err := json.Marshal([]map[string]string{{"orderId": ref}})
		if err != nil {
			return uuid.Nil, err
		}
		byID, err := json.Marshal([]map[string]string{{"_id": ref}})
		if err != nil {
			return uuid.Nil, err
		}
		query = query.Where("orders @> ?::jsonb OR orders @> ?::jsonb", string(byOrderID), string(byID))
	}
	if err := query.Limit(1).Pluck("id", &ids).Error; err != nil {
		return uuid.Nil, err
	}
	if len(ids) == 0 {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	return ids[0], nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// Save persists the mutable aggregate columns if the stored version still
// matches user.Version, then bumps the version. ErrVersionConflict is returned
// when another writer got there first.
func (r *Repository) Save(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("users: nil user")
	}
	expected := user.Version
	now := time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, expected).
		Updates(map[string]any{
			"name":                   user.Name,
			"email":                  user.Email,
			"password_hash":          user.PasswordHash,
			"phone":                  user.Phone,
			"role":                   user.Role,
			"is_verified":            user.IsVerified,
			"password_reset_token":   user.PasswordResetToken,
			"password_reset_expires": user.PasswordResetExpires,
			"preferences":            user.Preferences,
			"addresses":              user.Addresses,
			"cart":                   user.Cart,
			"orders":                 user.Orders,
			"wishlist":               user.Wishlist,
			"version":                expected + 1,
			"updated_at":             now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}

	user.Version = expected + 1
	user.UpdatedAt = now
	return nil
}

// Mutate runs a read-modify-write cycle on one user aggregate. fn is applied to
// a freshly loaded copy and may run more than once when concurrent writers
// race; it must only touch the user it is given.
func (r *Repository) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*models.User, error) {
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		user, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(user); err != nil {
			return nil, err
		}
		err = r.Save(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "concurrent update, please retry")
}

// RemoveFromWishlists drops productID from every wishlist that holds it and
// returns how many users were touched. A row that changed since it was read
// fails the whole call with ErrVersionConflict.
func (r *Repository) RemoveFromWishlists(ctx context.Context, productID string) (int, error) {
	var holders []models.User
	err := r.db.WithContext(ctx).
		Select("id", "wishlist", "version").
		Where("CAST(wishlist AS TEXT) LIKE ?", jsonStringPattern(productID)).
		Find(&holders).Error
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	touched := 0
	for _, holder := range holders {
		kept := withoutString(holder.Wishlist, productID)
		if len(kept) == len(holder.Wishlist) {
			continue
		}
		res := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ? AND version = ?", holder.ID, holder.Version).
			Updates(map[string]any{
				"wishlist":   kept,
				"version":    holder.Version + 1,
				"updated_at": now,
			})
		if res.Error != nil {
			return touched, res.Error
		}
		if res.RowsAffected == 0 {
			return touched, ErrVersionConflict
		}
		touched++
	}
	return touched, nil
}

func jsonStringPattern(value string) string {
	return `%"` + value + `"%`
}

func withoutString(list types.StringList, value string) types.StringList {
	out := make(types.StringList, 0, len(list))
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}

func emptyCart() types.Cart {
	return types.Cart{Items: []types.CartItem{}}
}

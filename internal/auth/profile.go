package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/pkg/db"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
)

const msgEmailInUse = "Email already in use by another account"

func (s *service) Me(ctx context.Context, userID uuid.UUID) (users.SummaryDTO, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return users.SummaryDTO{}, err
	}
	return users.SummaryFromModel(user), nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

// UpdateProfile applies the non-empty fields of req. The email uniqueness
// check runs before the write; the unique index catches the remaining race.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req ProfileUpdate) (*users.UserDTO, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)

	if email != "" {
		if !validators.IsEmail(email) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidEmail)
		}
		taken, err := s.users.EmailTakenByOther(ctx, email, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgEmailInUse)
		}
	}
	if phone != "" && !validators.IsMobilePhone(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid phone number")
	}

	user, err := s.users.Mutate(ctx, userID, func(u *models.User) error {
		if name != "" {
			u.Name = name
		}
		if email != "" {
			u.Email = email
		}
		if phone != "" {
			u.Phone = &phone
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgEmailInUse)
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return users.FromModel(user), nil
}

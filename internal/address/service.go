package address

import (
	"context"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// UserStore loads and mutates the user aggregate that owns the address book.
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Mutate(ctx context.Context, id uuid.UUID, fn users.MutateFunc) (*models.User, error)
}

// Result is the outcome of a single-address mutation.
type Result struct {
	Address        types.Address
	Addresses      types.AddressList
	AlreadyDefault bool
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID) (types.AddressList, error)
	Add(ctx context.Context, userID uuid.UUID, in Input) (Result, error)
	Update(ctx context.Context, userID uuid.UUID, addressID string, patch Patch) (Result, error)
	Delete(ctx context.Context, userID uuid.UUID, addressID string) (types.AddressList, error)
	SetDefault(ctx context.Context, userID uuid.UUID, addressID string) (Result, error)
}

type service struct {
	users UserStore
}

func NewService(store UserStore) Service {
	return &service{users: store}
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (types.AddressList, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(user.Addresses), nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, in Input) (Result, error) {
	if err := validators.Struct(in); err != nil {
		return Result{}, err
	}
	var created types.Address
	user, err := s.users.Mutate(ctx, userID, func(u *models.User) error {
		list, addr, err := Add(u.Addresses, in)
		if err != nil {
			return err
		}
		u.Addresses = list
		created = addr
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Address: created, Addresses: nonNil(user.Addresses)}, nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, addressID string, patch Patch) (Result, error) {
	var updated types.Address
	user, err := s.users.Mutate(ctx, userID, func(u *models.User) error {
		list, addr, err := Update(u.Addresses, addressID, patch)
		if err != nil {
			return err
		}
		u.Addresses = list
		updated = addr
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Address: updated, Addresses: nonNil(user.Addresses)}, nil
}

func (s *service) Delete(ctx context.Context, userID uuid.UUID, addressID string) (types.AddressList, error) {
	user, err := s.users.Mutate(ctx, userID, func(u *models.User) error {
		list, err := Delete(u.Addresses, addressID)
		if err != nil {
			return err
		}
		u.Addresses = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(user.Addresses), nil
}

func (s *service) SetDefault(ctx context.Context, userID uuid.UUID, addressID string) (Result, error) {
	current, err := s.users.Get(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if _, addr, already, err := SetDefault(current.Addresses, addressID); err != nil {
		return Result{}, err
	} else if already {
		return Result{Address: addr, Addresses: nonNil(current.Addresses), AlreadyDefault: true}, nil
	}

	var chosen types.Address
	var already bool
	user, err := s.users.Mutate(ctx, userID, func(u *models.User) error {
		list, addr, noop, err := SetDefault(u.Addresses, addressID)
		if err != nil {
			return err
		}
		u.Addresses = list
		chosen, already = addr, noop
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Address: chosen, Addresses: nonNil(user.Addresses), AlreadyDefault: already}, nil
}

func nonNil(list types.AddressList) types.AddressList {
	if list == nil {
		return types.AddressList{}
	}
	return list
}

package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// MergeRecorder counts merged and failed guest cart lines.
type MergeRecorder interface {
	AddCartMerge(merged, failed int)
}

// MergeResult summarizes a guest cart merge.
type MergeResult struct {
	Merged int
	Failed int
}

// Service exposes the cart operations shared by guests and signed-in users.
type Service interface {
	Get(ctx context.Context, owner Owner) (types.Cart, error)
	Add(ctx context.Context, owner Owner, in AddInput) (types.Cart, error)
	UpdateQuantity(ctx context.Context, owner Owner, itemID string, quantity int) (types.Cart, error)
	Remove(ctx context.Context, owner Owner, itemID string) (types.Cart, error)
	Clear(ctx context.Context, owner Owner) (types.Cart, error)
	MergeGuestCart(ctx context.Context, guestSession string, userID uuid.UUID) (MergeResult, error)
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Users    UserStore
	Sessions SessionStore
	Recorder MergeRecorder
}

type service struct {
	user     Store
	guest    Store
	sessions SessionStore
	recorder MergeRecorder
	now      func() time.Time
}

// NewService builds a cart service backed by the user repository and the guest session store.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &service{
		user:     userStore{users: params.Users},
		guest:    guestStore{sessions: params.Sessions},
		sessions: params.Sessions,
		recorder: params.Recorder,
		now:      time.Now,
	}, nil
}

func (s *service) storeFor(owner Owner) Store {
	if owner.IsGuest() {
		return s.guest
	}
	return s.user
}

func (s *service) Get(ctx context.Context, owner Owner) (types.Cart, error) {
	return s.storeFor(owner).Load(ctx, owner)
}

func (s *service) Add(ctx context.Context, owner Owner, in AddInput) (types.Cart, error) {
	if err := validators.Struct(in); err != nil {
		return types.Cart{}, err
	}
	store := s.storeFor(owner)
	return store.Update(ctx, owner, func(c *types.Cart) error {
		next, err := Add(*c, in, store.NewItemID, s.now())
		if err != nil {
			return err
		}
		*c = next
		return nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, owner Owner, itemID string, quantity int) (types.Cart, error) {
	if err := ValidateQuantityUpdate(itemID, quantity); err != nil {
		return types.Cart{}, err
	}
	return s.storeFor(owner).Update(ctx, owner, func(c *types.Cart) error {
		next, err := UpdateQuantity(*c, itemID, quantity, s.now())
		if err != nil {
			return err
		}
		*c = next
		return nil
	})
}

func (s *service) Remove(ctx context.Context, owner Owner, itemID string) (types.Cart, error) {
	store := s.storeFor(owner)
	current, err := store.Load(ctx, owner)
	if err != nil {
		return types.Cart{}, err
	}
	if !Contains(current, itemID) {
		return current, nil
	}
	return store.Update(ctx, owner, func(c *types.Cart) error {
		*c = Remove(*c, itemID, s.now())
		return nil
	})
}

func (s *service) Clear(ctx context.Context, owner Owner) (types.Cart, error) {
	return s.storeFor(owner).Update(ctx, owner, func(c *types.Cart) error {
		*c = Clear(*c, s.now())
		return nil
	})
}

// MergeGuestCart moves every guest line into the user's cart in insertion
// order, one persisted add per line. Lines that fail stay in the guest cart so
// a later login can retry them; merged lines are never rolled back.
func (s *service) MergeGuestCart(ctx context.Context, guestSession string, userID uuid.UUID) (MergeResult, error) {
	if guestSession == "" {
		return MergeResult{}, nil
	}
	guest, found, err := s.sessions.LoadCart(ctx, guestSession)
	if err != nil {
		return MergeResult{}, fmt.Errorf("load guest cart: %w", err)
	}
	if !found || len(guest.Items) == 0 {
		return MergeResult{}, nil
	}

	var (
		errs     error
		result   MergeResult
		leftover []types.CartItem
	)
	owner := UserOwner(userID)
	for _, item := range guest.Items {
		in := InputFromItem(item)
		_, err := s.user.Update(ctx, owner, func(c *types.Cart) error {
			next, err := Add(*c, in, s.user.NewItemID, s.now())
			if err != nil {
				return err
			}
			*c = next
			return nil
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("merge cart item %s: %w", item.ID, err))
			leftover = append(leftover, item)
			result.Failed++
			continue
		}
		result.Merged++
	}

	if s.recorder != nil {
		s.recorder.AddCartMerge(result.Merged, result.Failed)
	}

	if len(leftover) == 0 {
		if err := s.sessions.DeleteCart(ctx, guestSession); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete guest cart: %w", err))
		}
		return result, errs
	}

	remaining := Recompute(types.Cart{Items: leftover}, s.now())
	if err := s.sessions.SaveCart(ctx, guestSession, remaining); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("save unmerged guest items: %w", err))
	}
	return result, errs
}

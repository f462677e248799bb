package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/api/validators"
	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/logger"
	"github.com/rbhardware/shop-backend/pkg/types"
)

const (
	actorUser  = "user"
	actorAdmin = "admin"

	listAllPageSize = 200
)

// UserStore is the slice of the users repository the order manager relies on.
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Mutate(ctx context.Context, id uuid.UUID, fn users.MutateFunc) (*models.User, error)
	ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	FindOrderHolders(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	FindIDByOrderRef(ctx context.Context, ref string) (uuid.UUID, error)
}

// Recorder counts order lifecycle events.
type Recorder interface {
	IncOrderCreated()
	IncStatusChange(status, actor string)
}

// Service runs the order lifecycle embedded in the user aggregate.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateInput) (types.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) (types.OrderList, error)
	Get(ctx context.Context, userID uuid.UUID, ref string) (types.Order, error)
	Cancel(ctx context.Context, userID uuid.UUID, ref, reason string) (types.Order, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, ref, status string) (types.Order, error)
	UpdateStatusByRef(ctx context.Context, ref, status string) (types.Order, error)
	ListAll(ctx context.Context) ([]AdminOrder, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Users    UserStore
	Recorder Recorder
	Logger   *logger.Logger
	// Random feeds order id generation; defaults to crypto/rand.
	Random io.Reader
}

type service struct {
	users    UserStore
	recorder Recorder
	logg     *logger.Logger
	random   io.Reader
	now      func() time.Time
}

// NewService builds the order lifecycle manager.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	return &service{
		users:    params.Users,
		recorder: params.Recorder,
		logg:     params.Logger,
		random:   params.Random,
		now:      time.Now,
	}, nil
}

// Create places an order, prepends it to the user's orders and empties the
// cart in a single aggregate save.
func (s *service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (types.Order, error) {
	if err := validators.Struct(in); err != nil {
		return types.Order{}, err
	}

	var created types.Order
	_, err := s.users.Mutate(ctx, userID, func(u *models.User) error {
		now := s.now()
		orderID, err := NewOrderID(now, s.random)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order id")
		}
		created = Build(in, orderID, now)

		list := make(types.OrderList, 0, len(u.Orders)+1)
		list = append(list, created)
		list = append(list, u.Orders...)
		u.Orders = list

		stamp := now.UTC()
		u.Cart = types.Cart{Items: []types.CartItem{}, LastUpdated: &stamp}
		return nil
	})
	if err != nil {
		return types.Order{}, err
	}

	if s.recorder != nil {
		s.recorder.IncOrderCreated()
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), created.OrderID)
		s.logg.Info(ctx, "order created")
	}
	return created, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) (types.OrderList, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Orders == nil {
		return types.OrderList{}, nil
	}
	return user.Orders, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, ref string) (types.Order, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return types.Order{}, err
	}
	idx := Find(user.Orders, ref)
	if idx < 0 {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	return user.Orders[idx], nil
}

func (s *service) Cancel(ctx context.Context, userID uuid.UUID, ref, reason string) (types.Order, error) {
	var cancelled types.Order
	_, err := s.users.Mutate(ctx, userID, func(u *models.User) error {
		idx := Find(u.Orders, ref)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		if err := Cancel(&u.Orders[idx], reason, s.now()); err != nil {
			return err
		}
		cancelled = u.Orders[idx]
		return nil
	})
	if err != nil {
		return types.Order{}, err
	}
	s.recordStatus(cancelled, actorUser)
	return cancelled, nil
}

func (s *service) UpdateStatus(ctx context.Context, userID uuid.UUID, ref, raw string) (types.Order, error) {
	status, err := ParseAdminStatus(raw)
	if err != nil {
		return types.Order{}, err
	}

	var updated types.Order
	_, err = s.users.Mutate(ctx, userID, func(u *models.User) error {
		idx := Find(u.Orders, ref)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		SetStatusByAdmin(&u.Orders[idx], status, s.now())
		updated = u.Orders[idx]
		return nil
	})
	if err != nil {
		return types.Order{}, err
	}
	s.recordStatus(updated, actorAdmin)
	return updated, nil
}

// UpdateStatusByRef resolves the owning user from the order reference first.
func (s *service) UpdateStatusByRef(ctx context.Context, ref, raw string) (types.Order, error) {
	if _, err := ParseAdminStatus(raw); err != nil {
		return types.Order{}, err
	}
	userID, err := s.users.FindIDByOrderRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		return types.Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve order owner")
	}
	return s.UpdateStatus(ctx, userID, ref, raw)
}

// ListAll gathers every user's orders page by page. A page that fails to load
// is retried user by user; users that still fail are skipped and logged.
func (s *service) ListAll(ctx context.Context) ([]AdminOrder, error) {
	var (
		out   []AdminOrder
		errs  error
		after uuid.UUID
	)
	for {
		ids, err := s.users.ListIDs(ctx, after, listAllPageSize)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
		}
		if len(ids) == 0 {
			break
		}
		after = ids[len(ids)-1]

		holders, err := s.users.FindOrderHolders(ctx, ids)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("load page after %s: %w", ids[0], err))
			holders = s.loadOneByOne(ctx, ids, &errs)
		}
		for i := range holders {
			out = append(out, annotate(&holders[i])...)
		}
		if len(ids) < listAllPageSize {
			break
		}
	}

	if errs != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"skipped_errors": len(multierr.Errors(errs)),
			"error":          errs.Error(),
		}), "admin order listing is partial")
	}

	SortNewestFirst(out)
	if out == nil {
		out = []AdminOrder{}
	}
	return out, nil
}

func (s *service) loadOneByOne(ctx context.Context, ids []uuid.UUID, errs *error) []models.User {
	var holders []models.User
	for _, id := range ids {
		batch, err := s.users.FindOrderHolders(ctx, []uuid.UUID{id})
		if err != nil {
			*errs = multierr.Append(*errs, fmt.Errorf("load user %s: %w", id, err))
			continue
		}
		holders = append(holders, batch...)
	}
	return holders
}

func annotate(u *models.User) []AdminOrder {
	if len(u.Orders) == 0 {
		return nil
	}
	customer := Customer{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
	out := make([]AdminOrder, 0, len(u.Orders))
	for _, order := range u.Orders {
		out = append(out, AdminOrder{Order: order, User: customer})
	}
	return out
}

func (s *service) recordStatus(order types.Order, actor string) {
	if s.recorder != nil {
		s.recorder.IncStatusChange(order.Status.String(), actor)
	}
}

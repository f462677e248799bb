package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	redisclient "github.com/rbhardware/shop-backend/pkg/redis"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// Owner identifies whose cart an operation targets: an authenticated user or
// an anonymous guest session.
type Owner struct {
	UserID       uuid.UUID
	GuestSession string
}

// UserOwner targets the persisted cart of a user.
func UserOwner(id uuid.UUID) Owner { return Owner{UserID: id} }

// GuestOwner targets the session-held cart of a visitor.
func GuestOwner(sessionID string) Owner { return Owner{GuestSession: sessionID} }

// IsGuest reports whether the owner is an anonymous session.
func (o Owner) IsGuest() bool { return o.UserID == uuid.Nil }

// Store loads and atomically rewrites one owner's cart. Both implementations
// share the same contract.
type Store interface {
	Load(ctx context.Context, owner Owner) (types.Cart, error)
	Update(ctx context.Context, owner Owner, fn func(cart *types.Cart) error) (types.Cart, error)
	NewItemID(cart types.Cart, now time.Time) string
}

// UserStore is the slice of the users repository the cart relies on.
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Mutate(ctx context.Context, id uuid.UUID, fn users.MutateFunc) (*models.User, error)
}

// SessionStore holds guest carts keyed by session id.
type SessionStore interface {
	LoadCart(ctx context.Context, sessionID string) (types.Cart, bool, error)
	SaveCart(ctx context.Context, sessionID string, cart types.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}

type userStore struct {
	users UserStore
}

func (s userStore) Load(ctx context.Context, owner Owner) (types.Cart, error) {
	user, err := s.users.Get(ctx, owner.UserID)
	if err != nil {
		return types.Cart{}, err
	}
	return normalize(user.Cart), nil
}

func (s userStore) Update(ctx context.Context, owner Owner, fn func(cart *types.Cart) error) (types.Cart, error) {
	user, err := s.users.Mutate(ctx, owner.UserID, func(u *models.User) error {
		next := normalize(u.Cart)
		if err := fn(&next); err != nil {
			return err
		}
		u.Cart = next
		return nil
	})
	if err != nil {
		return types.Cart{}, err
	}
	return normalize(user.Cart), nil
}

func (userStore) NewItemID(types.Cart, time.Time) string {
	return uuid.NewString()
}

// guestStore writes are last-writer-wins within one session.
type guestStore struct {
	sessions SessionStore
}

func (s guestStore) Load(ctx context.Context, owner Owner) (types.Cart, error) {
	if owner.GuestSession == "" {
		return types.Cart{}, pkgerrors.New(pkgerrors.CodeValidation, msgGuestSessionID)
	}
	cart, _, err := s.sessions.LoadCart(ctx, owner.GuestSession)
	if err != nil {
		return types.Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
	}
	return normalize(cart), nil
}

func (s guestStore) Update(ctx context.Context, owner Owner, fn func(cart *types.Cart) error) (types.Cart, error) {
	cart, err := s.Load(ctx, owner)
	if err != nil {
		return types.Cart{}, err
	}
	if err := fn(&cart); err != nil {
		return types.Cart{}, err
	}
	if err := s.sessions.SaveCart(ctx, owner.GuestSession, cart); err != nil {
		return types.Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save guest cart")
	}
	return cart, nil
}

// NewItemID returns the millisecond timestamp, bumped until unique in the cart.
func (guestStore) NewItemID(cart types.Cart, now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if !Contains(cart, id) {
			return id
		}
		ms++
	}
}

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type guestCartKeyer interface {
	GuestCartKey(sessionID string) string
}

// RedisSessionStore keeps guest carts as JSON under a sliding TTL.
type RedisSessionStore struct {
	store kvStore
	keyer guestCartKeyer
	ttl   time.Duration
}

// NewRedisSessionStore builds a guest cart store on the shared Redis client.
func NewRedisSessionStore(client *redisclient.Client, ttl time.Duration) (*RedisSessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("guest cart ttl must be positive")
	}
	return &RedisSessionStore{store: client, keyer: client, ttl: ttl}, nil
}

func (r *RedisSessionStore) LoadCart(ctx context.Context, sessionID string) (types.Cart, bool, error) {
	key := r.keyer.GuestCartKey(sessionID)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return emptyCart(), false, nil
		}
		return types.Cart{}, false, err
	}
	var cart types.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return types.Cart{}, false, fmt.Errorf("decode guest cart: %w", err)
	}
	if _, err := r.store.Expire(ctx, key, r.ttl); err != nil {
		return types.Cart{}, false, err
	}
	return normalize(cart), true, nil
}

func (r *RedisSessionStore) SaveCart(ctx context.Context, sessionID string, cart types.Cart) error {
	payload, err := json.Marshal(normalize(cart))
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	return r.store.Set(ctx, r.keyer.GuestCartKey(sessionID), string(payload), r.ttl)
}

func (r *RedisSessionStore) DeleteCart(ctx context.Context, sessionID string) error {
	return r.store.Del(ctx, r.keyer.GuestCartKey(sessionID))
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu    sync.Mutex
	carts map[string]types.Cart
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{carts: map[string]types.Cart{}}
}

func (m *MemorySessionStore) LoadCart(_ context.Context, sessionID string) (types.Cart, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return emptyCart(), false, nil
	}
	return copyCart(cart), true, nil
}

func (m *MemorySessionStore) SaveCart(_ context.Context, sessionID string, cart types.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = copyCart(normalize(cart))
	return nil
}

func (m *MemorySessionStore) DeleteCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

func emptyCart() types.Cart {
	return types.Cart{Items: []types.CartItem{}}
}

func normalize(c types.Cart) types.Cart {
	if c.Items == nil {
		c.Items = []types.CartItem{}
	}
	return c
}

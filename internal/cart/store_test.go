package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/rbhardware/shop-backend/pkg/types"
)

type mockKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockKV() *mockKV {
	return &mockKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *mockKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mockKV) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return false, nil
	}
	m.ttls[key] = ttl
	return true, nil
}

func (m *mockKV) GuestCartKey(sessionID string) string {
	return "guest_cart:" + sessionID
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMockKV()
	store := &RedisSessionStore{store: kv, keyer: kv, ttl: time.Hour}

	cart, found, err := store.LoadCart(ctx, "s1")
	require.NoError(t, err)
	require.False(t, found)
	require.NotNil(t, cart.Items)

	next, err := Add(cart, input("p1", "99.90", 2), guestStore{}.NewItemID, fixedNow)
	require.NoError(t, err)
	require.NoError(t, store.SaveCart(ctx, "s1", next))
	require.Equal(t, time.Hour, kv.ttls["guest_cart:s1"])
	require.Contains(t, kv.data["guest_cart:s1"], `"totalAmount":199.80`)

	loaded, found, err := store.LoadCart(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded.Items, 1)
	require.True(t, loaded.TotalAmount.Equal(types.MustMoney("199.80")))

	require.NoError(t, store.DeleteCart(ctx, "s1"))
	_, found, err = store.LoadCart(ctx, "s1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisSessionStoreRejectsCorruptPayload(t *testing.T) {
	kv := newMockKV()
	kv.data["guest_cart:bad"] = "{not json"
	store := &RedisSessionStore{store: kv, keyer: kv, ttl: time.Hour}

	_, _, err := store.LoadCart(context.Background(), "bad")
	require.Error(t, err)
}

func TestNewRedisSessionStoreValidatesArgs(t *testing.T) {
	_, err := NewRedisSessionStore(nil, time.Hour)
	require.Error(t, err)
}

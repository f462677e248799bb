package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rbhardware/shop-backend/internal/testdb"
	"github.com/rbhardware/shop-backend/internal/users"
	"github.com/rbhardware/shop-backend/pkg/db/models"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

type recorderStub struct {
	mu     sync.Mutex
	merged int
	failed int
}

func (r *recorderStub) AddCartMerge(merged, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merged += merged
	r.failed += failed
}

// flakyUsers fails Mutate calls whose ordinal is listed in failOn.
type flakyUsers struct {
	*users.Repository
	calls  int
	failOn map[int]bool
}

func (f *flakyUsers) Mutate(ctx context.Context, id uuid.UUID, fn users.MutateFunc) (*models.User, error) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, errors.New("database unavailable")
	}
	return f.Repository.Mutate(ctx, id, fn)
}

type fixture struct {
	svc      Service
	repo     *users.Repository
	sessions *MemorySessionStore
	recorder *recorderStub
	userID   uuid.UUID
}

func newFixture(t *testing.T, store UserStore) fixture {
	t.Helper()
	repo := users.NewRepository(testdb.Open(t))
	user, err := repo.Create(context.Background(), users.CreateUserDTO{
		Name:         "Meera",
		Email:        "meera@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	if store == nil {
		store = repo
	}
	if flaky, ok := store.(*flakyUsers); ok {
		flaky.Repository = repo
	}
	sessions := NewMemorySessionStore()
	recorder := &recorderStub{}
	svc, err := NewService(ServiceParams{Users: store, Sessions: sessions, Recorder: recorder})
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, sessions: sessions, recorder: recorder, userID: user.ID}
}

func TestServiceContractIsIdenticalForGuestsAndUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	for name, owner := range map[string]Owner{
		"guest": GuestOwner("guest-session-1"),
		"user":  UserOwner(f.userID),
	} {
		t.Run(name, func(t *testing.T) {
			c, err := f.svc.Add(ctx, owner, input("p1", "25.00", 2))
			require.NoError(t, err)
			require.Len(t, c.Items, 1)

			c, err = f.svc.Add(ctx, owner, input("p1", "25.00", 1))
			require.NoError(t, err)
			require.Equal(t, 3, c.Items[0].Quantity)
			require.True(t, c.TotalAmount.Equal(types.MustMoney("75.00")))

			c, err = f.svc.UpdateQuantity(ctx, owner, c.Items[0].ID, 1)
			require.NoError(t, err)
			require.True(t, c.TotalAmount.Equal(types.MustMoney("25.00")))

			_, err = f.svc.UpdateQuantity(ctx, owner, "missing", 1)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

			c, err = f.svc.Remove(ctx, owner, "missing")
			require.NoError(t, err)
			require.Len(t, c.Items, 1)

			c, err = f.svc.Remove(ctx, owner, c.Items[0].ID)
			require.NoError(t, err)
			require.Empty(t, c.Items)

			_, err = f.svc.Add(ctx, owner, input("p2", "9.99", 1))
			require.NoError(t, err)
			c, err = f.svc.Clear(ctx, owner)
			require.NoError(t, err)
			require.Empty(t, c.Items)
			require.True(t, c.TotalAmount.IsZero())

			loaded, err := f.svc.Get(ctx, owner)
			require.NoError(t, err)
			require.Empty(t, loaded.Items)
		})
	}
}

func TestUserCartIsPersisted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Add(ctx, UserOwner(f.userID), input("p1", "12.00", 2))
	require.NoError(t, err)

	user, err := f.repo.Get(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, user.Cart.Items, 1)
	require.True(t, user.Cart.TotalAmount.Equal(types.MustMoney("24.00")))
}

func TestMergeAddsQuantitiesOfMatchingLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Add(ctx, UserOwner(f.userID), input("X", "10.00", 3))
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, GuestOwner("g1"), input("X", "10.00", 2))
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, GuestOwner("g1"), input("Y", "1.00", 1))
	require.NoError(t, err)

	result, err := f.svc.MergeGuestCart(ctx, "g1", f.userID)
	require.NoError(t, err)
	require.Equal(t, MergeResult{Merged: 2}, result)

	c, err := f.svc.Get(ctx, UserOwner(f.userID))
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	require.Equal(t, "X", c.Items[0].ProductID)
	require.Equal(t, 5, c.Items[0].Quantity)
	require.True(t, c.TotalAmount.Equal(types.MustMoney("51.00")))

	_, found, err := f.sessions.LoadCart(ctx, "g1")
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 2, f.recorder.merged)
}

func TestMergeKeepsMergedLinesWhenOneFails(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyUsers{failOn: map[int]bool{2: true}}
	f := newFixture(t, flaky)

	for _, id := range []string{"A", "B", "C"} {
		_, err := f.svc.Add(ctx, GuestOwner("g2"), input(id, "2.00", 1))
		require.NoError(t, err)
	}

	result, err := f.svc.MergeGuestCart(ctx, "g2", f.userID)
	require.Error(t, err)
	require.Equal(t, MergeResult{Merged: 2, Failed: 1}, result)

	c, err := f.svc.Get(ctx, UserOwner(f.userID))
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	require.Equal(t, "A", c.Items[0].ProductID)
	require.Equal(t, "C", c.Items[1].ProductID)

	left, found, err := f.sessions.LoadCart(ctx, "g2")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, left.Items, 1)
	require.Equal(t, "B", left.Items[0].ProductID)
	require.Equal(t, 1, f.recorder.failed)
}

func TestMergeWithoutGuestCartIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	result, err := f.svc.MergeGuestCart(context.Background(), "unknown", f.userID)
	require.NoError(t, err)
	require.Zero(t, result)
}

func TestGuestOwnerRequiresSession(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Get(context.Background(), Owner{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

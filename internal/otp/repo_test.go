package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/internal/testdb"
)

func TestFindValidIgnoresExpiredAndWrongCodes(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.Open(t))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, "Asha@Example.com", "123456", now.Add(10*time.Minute))
	require.NoError(t, err)
	_, err = repo.Create(ctx, "asha@example.com", "654321", now.Add(-time.Minute))
	require.NoError(t, err)

	found, err := repo.FindValid(ctx, "asha@example.com", "123456", now)
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", found.Email)

	_, err = repo.FindValid(ctx, "asha@example.com", "654321", now)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = repo.FindValid(ctx, "asha@example.com", "123456", now.Add(11*time.Minute))
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteExpiredKeepsLiveCodes(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.Open(t))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	live, err := repo.Create(ctx, "a@example.com", "111111", now.Add(5*time.Minute))
	require.NoError(t, err)
	_, err = repo.Create(ctx, "b@example.com", "222222", now.Add(-5*time.Minute))
	require.NoError(t, err)

	purged, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	require.NoError(t, repo.Delete(ctx, live.ID))
	_, err = repo.FindValid(ctx, "a@example.com", "111111", now)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

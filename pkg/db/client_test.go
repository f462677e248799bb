package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rbhardware/shop-backend/pkg/config"
)

type ledgerRow struct {
	ID   int
	Note string
}

func sqliteConfig() config.DBConfig {
	return config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}
}

func TestDialectorForDriver(t *testing.T) {
	cases := map[string]string{
		"sqlite":   "sqlite",
		"SQLite":   "sqlite",
		"postgres": "postgres",
		"":         "postgres",
	}
	for driver, want := range cases {
		cfg := config.DBConfig{Driver: driver, DSN: "postgres://shop@localhost:5432/shop"}
		if want == "sqlite" {
			cfg.DSN = "file::memory:"
		}
		require.Equalf(t, want, dialectorFor(cfg).Name(), "driver %q", driver)
	}
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: config.DBDriverSQLite}, nil)
	require.EqualError(t, err, "database DSN is required")
}

func TestNewOpensSQLite(t *testing.T) {
	client, err := New(context.Background(), sqliteConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.Equal(t, "sqlite", client.DB().Dialector.Name())
	require.NoError(t, client.Ping(context.Background()))

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	client, err := New(context.Background(), sqliteConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&ledgerRow{}))

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Note: "kept"}).Error
	}))

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&ledgerRow{Note: "dropped"}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	var notes []string
	require.NoError(t, client.DB().Model(&ledgerRow{}).Order("id").Pluck("note", &notes).Error)
	require.Equal(t, []string{"kept"}, notes)
}

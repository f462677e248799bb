package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rbhardware/shop-backend/internal/testdb"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
)

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(Categories, NewRepository(testdb.Open(t), Categories))

	code := "cat-01"
	created, err := svc.Create(ctx, Input{Code: &code, Name: " Handles "})
	require.NoError(t, err)
	require.Equal(t, "Handles", created.Name)
	require.Equal(t, "cat-01", *created.Code)

	_, err = svc.Create(ctx, Input{Name: "Handles"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	require.Equal(t, "Category already exists", pkgerrors.As(err).Message())

	_, err = svc.Create(ctx, Input{Name: ""})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	updated, err := svc.Update(ctx, created.ID.String(), Input{Name: "Door Handles"})
	require.NoError(t, err)
	require.Equal(t, "Door Handles", updated.Name)
	require.Equal(t, "cat-01", *updated.Code)

	_, err = svc.Update(ctx, uuid.NewString(), Input{Name: "Ghost"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Equal(t, "Category not found", pkgerrors.As(err).Message())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID.String()))
	require.NoError(t, svc.Delete(ctx, created.ID.String()))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestColorsIgnoreCode(t *testing.T) {
	ctx := context.Background()
	svc := NewService(Colors, NewRepository(testdb.Open(t), Colors))

	code := "ignored"
	created, err := svc.Create(ctx, Input{Code: &code, Name: "Matte Black"})
	require.NoError(t, err)
	require.Nil(t, created.Code)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Matte Black", list[0].Name)

	err = svc.Delete(ctx, "nope")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "Color deleted successfully", svc.Kind().DeletedMessage())
}

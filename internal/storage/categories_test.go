package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCategory(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	cat, err := store.GetOrCreateCategory(ctx, "ana", "Groceries")
	require.NoError(t, err)
	require.NotZero(t, cat.ID)
	assert.Equal(t, "Groceries", cat.Name)

	again, err := store.GetOrCreateCategory(ctx, "ana", "Groceries")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, again.ID)

	// Same name under another owner is a separate category.
	other, err := store.GetOrCreateCategory(ctx, "bruno", "Groceries")
	require.NoError(t, err)
	assert.NotEqual(t, cat.ID, other.ID)

	_, err = store.GetOrCreateCategory(ctx, "ana", "  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestGetCategoriesOrdered(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for _, name := range []string{"Transport", "Groceries", "Rent"} {
		_, err := store.GetOrCreateCategory(ctx, "ana", name)
		require.NoError(t, err)
	}

	categories, err := store.GetCategories(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Groceries", categories[0].Name)
	assert.Equal(t, "Rent", categories[1].Name)
	assert.Equal(t, "Transport", categories[2].Name)
}

func TestGetOrCreatePayee(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	payee, err := store.GetOrCreatePayee(ctx, "ana", "Handy")
	require.NoError(t, err)
	require.NotZero(t, payee.ID)

	again, err := store.GetOrCreatePayee(ctx, "ana", "Handy")
	require.NoError(t, err)
	assert.Equal(t, payee.ID, again.ID)

	payees, err := store.GetPayees(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, payees, 1)
	assert.Equal(t, "Handy", payees[0].Name)
}

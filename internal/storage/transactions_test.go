package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachinapp/cachin/internal/model"
)

func testTransaction(id, ownerID string, date time.Time, description, amount string) model.Transaction {
	return model.Transaction{
		ID:          id,
		OwnerID:     ownerID,
		Date:        date,
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "UYU",
		Source:      "itau:7654",
	}
}

func TestSaveAndGetTransaction(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	txn := testTransaction("t1", "ana", date, "Sole y Gian f*HANDY*", "582.00")
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	got, err := store.GetTransactionByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "ana", got.OwnerID)
	assert.Equal(t, "Sole y Gian f*HANDY*", got.Description)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("582.00")))
	assert.Equal(t, "UYU", got.Currency)
	assert.Equal(t, "itau:7654", got.Source)
	assert.Equal(t, model.StatusConfirmed, got.Status, "status defaults to confirmed")
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.PayeeID)
	assert.Equal(t, date.Year(), got.Date.Year())
	assert.Equal(t, date.YearDay(), got.Date.YearDay())
}

func TestSaveTransactionsPreservesStatus(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := testTransaction("t1", "ana", time.Now(), "HANDY", "582.00")
	txn.Status = model.StatusPendingDuplicate
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	got, err := store.GetTransactionByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingDuplicate, got.Status)
}

func TestSaveTransactionsValidation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveTransactions(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, store.SaveTransactions(ctx, []model.Transaction{}), ErrEmptySlice)

	bad := testTransaction("t1", "ana", time.Now(), "HANDY", "10")
	bad.Currency = "pesos"
	assert.ErrorIs(t, store.SaveTransactions(ctx, []model.Transaction{bad}), ErrInvalidTransaction)
}

func TestSaveTransactionsAtomic(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	good := testTransaction("t1", "ana", time.Now(), "HANDY", "10")
	dupe := testTransaction("t1", "ana", time.Now(), "NETFLIX", "20")

	err := store.SaveTransactions(ctx, []model.Transaction{good, dupe})
	require.Error(t, err, "duplicate primary key aborts the batch")

	_, err = store.GetTransactionByID(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound, "a failed batch leaves nothing behind")
}

func TestGetTransactionByIDNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetTransactionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUncategorizedTransactions(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	cat, err := store.GetOrCreateCategory(ctx, "ana", "Groceries")
	require.NoError(t, err)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	categorized := testTransaction("t1", "ana", day, "HANDY", "10")
	categorized.CategoryID = &cat.ID
	newer := testTransaction("t2", "ana", day.AddDate(0, 0, 2), "NETFLIX", "20")
	older := testTransaction("t3", "ana", day.AddDate(0, 0, 1), "SPOTIFY", "30")
	foreign := testTransaction("t4", "bruno", day, "HANDY", "40")
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{categorized, newer, older, foreign}))

	txns, err := store.GetUncategorizedTransactions(ctx, "ana", 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "t3", txns[0].ID, "oldest first")
	assert.Equal(t, "t2", txns[1].ID)

	limited, err := store.GetUncategorizedTransactions(ctx, "ana", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "t3", limited[0].ID)
}

func TestUpdateTransactionAssignment(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	cat, err := store.GetOrCreateCategory(ctx, "ana", "Groceries")
	require.NoError(t, err)
	payee, err := store.GetOrCreatePayee(ctx, "ana", "Handy")
	require.NoError(t, err)

	txn := testTransaction("t1", "ana", time.Now(), "HANDY", "10")
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	txn.CategoryID = &cat.ID
	txn.PayeeID = &payee.ID
	require.NoError(t, store.UpdateTransactionAssignment(ctx, &txn))

	got, err := store.GetTransactionByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, *got.CategoryID)
	assert.Equal(t, payee.ID, *got.PayeeID)

	missing := testTransaction("nope", "ana", time.Now(), "HANDY", "10")
	assert.ErrorIs(t, store.UpdateTransactionAssignment(ctx, &missing), ErrNotFound)
}

func TestTransactionExists(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	txn := testTransaction("t1", "ana", date, "HANDY", "582.00")
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	amount := decimal.RequireFromString("582.00")

	exists, err := store.TransactionExists(ctx, "ana", date, "HANDY", amount, "UYU")
	require.NoError(t, err)
	assert.True(t, exists)

	// Same calendar day at a different wall-clock time still counts.
	exists, err = store.TransactionExists(ctx, "ana", date.Add(14*time.Hour), "HANDY", amount, "UYU")
	require.NoError(t, err)
	assert.True(t, exists)

	// 582 normalizes to 582.00 before comparison.
	exists, err = store.TransactionExists(ctx, "ana", date, "HANDY", decimal.RequireFromString("582"), "UYU")
	require.NoError(t, err)
	assert.True(t, exists)

	for _, tc := range []struct {
		name        string
		ownerID     string
		date        time.Time
		description string
		amount      string
		currency    string
	}{
		{"different day", "ana", date.AddDate(0, 0, 1), "HANDY", "582.00", "UYU"},
		{"different description", "ana", date, "NETFLIX", "582.00", "UYU"},
		{"different amount", "ana", date, "HANDY", "583.00", "UYU"},
		{"different currency", "ana", date, "HANDY", "582.00", "USD"},
		{"different owner", "bruno", date, "HANDY", "582.00", "UYU"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			exists, err := store.TransactionExists(ctx, tc.ownerID, tc.date, tc.description, decimal.RequireFromString(tc.amount), tc.currency)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestListOwners(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	owners, err := store.ListOwners(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("t1", "bruno", time.Now(), "HANDY", "10"),
		testTransaction("t2", "ana", time.Now(), "HANDY", "20"),
		testTransaction("t3", "ana", time.Now(), "NETFLIX", "30"),
	}))

	owners, err = store.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "bruno"}, owners)
}

package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/boothrent/generic"
	"github.com/warp/boothrent/rent"
	"github.com/warp/boothrent/store/sqlite"
)

var seededAt = time.Date(2025, time.November, 12, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, rent.Seed(context.Background(), store, seededAt))
	return store
}

func TestStore_SeededDirectory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	stylists, err := store.ListStylists(ctx)
	require.NoError(t, err)
	require.Len(t, stylists, 4)
	assert.Equal(t, generic.EntityID("1"), stylists[0].ID)
	assert.Equal(t, generic.EntityID("4"), stylists[3].ID)

	sarah, err := store.GetStylist(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, rent.RentPercentage, sarah.RentType)
	require.NotNil(t, sarah.PercentageRate)
	assert.Equal(t, "20", sarah.PercentageRate.String())
	assert.Equal(t, "275.00", sarah.WeeklyRent.String())
	require.NotNil(t, sarah.LastPayment)
	assert.Equal(t, "2024-11-05", sarah.LastPayment.String())

	jessica, err := store.GetStylist(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, jessica.PercentageRate)

	_, err = store.GetStylist(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrStylistNotFound)
}

func TestStore_SaveStylistUpserts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	michael, err := store.GetStylist(ctx, "2")
	require.NoError(t, err)

	paid := generic.NewDate(2025, time.November, 12)
	michael.Status = rent.StatusPaid
	michael.LastPayment = &paid
	michael.WeeklyRent = generic.NewMoney(320, generic.USD)
	require.NoError(t, store.SaveStylist(ctx, *michael))

	reloaded, err := store.GetStylist(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, rent.StatusPaid, reloaded.Status)
	assert.Equal(t, "2025-11-12", reloaded.LastPayment.String())
	assert.Equal(t, "320.00", reloaded.WeeklyRent.String())

	all, err := store.ListStylists(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStore_TransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 4)

	refs := []string{txs[0].Reference, txs[1].Reference, txs[2].Reference, txs[3].Reference}
	assert.Equal(t, []string{"TXN_20241105_001", "TXN_20241104_001", "TXN_20241028_001", "TXN_20241020_001"}, refs)

	ach := txs[0]
	assert.Equal(t, generic.MethodACH, ach.Method)
	assert.Equal(t, generic.StatusPending, ach.Status)
	assert.Equal(t, "ACH transfer initiated", ach.Notes)
	assert.True(t, ach.Amount.Equal(generic.NewMoney(275, generic.USD)))
}

func TestStore_AppendIsIdempotent(t *testing.T) {
	// GIVEN: A transaction with key k1 is stored
	// WHEN: Another transaction reuses k1
	// THEN: The database rejects it as a duplicate
	ctx := context.Background()
	store := newTestStore(t)

	tx := generic.Transaction{
		ID: "t-100", Reference: "TXN_1", EntityID: "1", EntityName: "Jessica Martinez",
		Date: generic.NewDate(2025, time.November, 12), Amount: generic.NewMoney(250, generic.USD),
		Method: generic.MethodCard, Status: generic.StatusSuccess, IdempotencyKey: "k1",
	}
	require.NoError(t, store.Append(ctx, tx))

	dup := tx
	dup.ID = "t-101"
	assert.ErrorIs(t, store.Append(ctx, dup), generic.ErrDuplicateIdempotencyKey)

	found, err := store.FindByIdempotencyKey(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, generic.TransactionID("t-100"), found.ID)

	none, err := store.FindByIdempotencyKey(ctx, "k-unknown")
	require.NoError(t, err)
	assert.Nil(t, none)

	got, err := store.GetTransaction(ctx, "t-100")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-12", got.Date.String())

	_, err = store.GetTransaction(ctx, "t-999")
	assert.ErrorIs(t, err, generic.ErrTransactionNotFound)
}

func TestStore_AppendRequiresKnownStylist(t *testing.T) {
	store := newTestStore(t)

	err := store.Append(context.Background(), generic.Transaction{
		ID: "t-200", Reference: "TXN_2", EntityID: "ghost", EntityName: "Ghost",
		Date: generic.NewDate(2025, time.November, 12), Amount: generic.NewMoney(1, generic.USD),
		Method: generic.MethodCard, Status: generic.StatusSuccess,
	})
	assert.ErrorIs(t, err, generic.ErrStylistNotFound)
}

func TestStore_LedgerCollected(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ledger := generic.NewLedger(store)

	// Sarah's seeded ACH transfer is Pending, which counts as settled.
	total, err := ledger.Collected(ctx, "3", generic.MonthPeriod(2024, time.November), generic.USD)
	require.NoError(t, err)
	assert.Equal(t, "275.00", total.String())

	// David's only payment failed.
	total, err = ledger.Collected(ctx, "4", generic.MonthPeriod(2024, time.October), generic.USD)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestStore_CollectorEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	processor := rent.NewSimulatedProcessor(rent.ProcessorConfig{SuccessRate: 1}, nil)
	c := rent.NewCollector(store, processor, zerolog.Nop())

	result, err := c.Collect(ctx, rent.CollectRequest{StylistID: "4", Method: generic.MethodCard, IdempotencyKey: "e2e"})
	require.NoError(t, err)

	history, err := store.ListByEntity(ctx, "4")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, result.Transaction.ID, history[0].ID)

	david, err := store.GetStylist(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, rent.StatusPaid, david.Status)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Reset(ctx))

	stylists, err := store.ListStylists(ctx)
	require.NoError(t, err)
	assert.Empty(t, stylists)

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

package rent_test

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/boothrent/generic"
	"github.com/warp/boothrent/generic/store"
	"github.com/warp/boothrent/rent"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2025, time.November, 12, 15, 4, 5, 0, time.UTC)

// scriptedProcessor returns the same receipt every time and counts calls.
type scriptedProcessor struct {
	receipt rent.Receipt
	err     error
	calls   int
}

func (p *scriptedProcessor) Charge(_ context.Context, _ rent.Charge) (rent.Receipt, error) {
	p.calls++
	return p.receipt, p.err
}

func approve() *scriptedProcessor {
	return &scriptedProcessor{receipt: rent.Receipt{Reference: "TXN_1762959845000_abc123xyz", Approved: true}}
}

func decline(msg string) *scriptedProcessor {
	return &scriptedProcessor{receipt: rent.Receipt{Reference: "TXN_FAILED_1762959845000", Message: msg}}
}

func newCollector(t *testing.T, p rent.Processor) (*rent.Collector, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, rent.Seed(context.Background(), mem, fixedNow))

	c := rent.NewCollector(mem, p, zerolog.Nop())
	c.Now = func() time.Time { return fixedNow }
	ids := 0
	c.NewID = func() string { ids++; return "tx-" + string(rune('a'+ids-1)) }
	return c, mem
}

// =============================================================================
// COLLECTOR TESTS
// =============================================================================

func TestCollect_CardSuccessMarksPaid(t *testing.T) {
	// GIVEN: Michael Chen (Pending, $300/week)
	// WHEN: Collecting by card and the processor approves
	// THEN: A Success transaction is recorded and he becomes Paid today
	ctx := context.Background()
	c, mem := newCollector(t, approve())

	result, err := c.Collect(ctx, rent.CollectRequest{StylistID: "2", Method: generic.MethodCard, IdempotencyKey: "k1"})
	require.NoError(t, err)

	tx := result.Transaction
	assert.False(t, result.Replayed)
	assert.Equal(t, generic.TransactionID("tx-a"), tx.ID)
	assert.Equal(t, generic.StatusSuccess, tx.Status)
	assert.Equal(t, "300.00", tx.Amount.String())
	assert.Equal(t, "Michael Chen", tx.EntityName)
	assert.Equal(t, "CARD payment processed", tx.Notes)
	assert.Equal(t, "2025-11-12", tx.Date.String())

	stylist, err := mem.GetStylist(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, rent.StatusPaid, stylist.Status)
	require.NotNil(t, stylist.LastPayment)
	assert.Equal(t, "2025-11-12", stylist.LastPayment.String())
}

func TestCollect_ACHIsPending(t *testing.T) {
	ctx := context.Background()
	c, mem := newCollector(t, approve())

	result, err := c.Collect(ctx, rent.CollectRequest{StylistID: "4", Method: generic.MethodACH})
	require.NoError(t, err)
	assert.Equal(t, generic.StatusPending, result.Transaction.Status)
	assert.Equal(t, "ACH payment processed", result.Transaction.Notes)

	stylist, err := mem.GetStylist(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, rent.StatusPending, stylist.Status)
	assert.Equal(t, "2025-11-12", stylist.LastPayment.String())
}

func TestCollect_DeclineIsRecordedAndReturned(t *testing.T) {
	// GIVEN: The processor declines
	// THEN: The Failed transaction is in the ledger, the error carries it,
	//       and the stylist status is untouched
	ctx := context.Background()
	c, mem := newCollector(t, decline("Card declined - invalid card number"))

	result, err := c.Collect(ctx, rent.CollectRequest{StylistID: "4", Method: generic.MethodCard, IdempotencyKey: "k-fail"})
	require.ErrorIs(t, err, generic.ErrPaymentFailed)

	var pf *generic.PaymentFailedError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "Card declined - invalid card number", pf.Reason)
	assert.Equal(t, "TXN_FAILED_1762959845000", pf.Transaction.Reference)
	assert.Equal(t, generic.StatusFailed, result.Transaction.Status)

	history, err := mem.ListByEntity(ctx, "4")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, generic.StatusFailed, history[0].Status)
	assert.Equal(t, "Card declined - invalid card number", history[0].Notes)

	stylist, err := mem.GetStylist(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, rent.StatusOverdue, stylist.Status)
}

func TestCollect_IdempotencyKeyReplays(t *testing.T) {
	// GIVEN: A successful collection with key k1
	// WHEN: The same request is retried
	// THEN: No second charge, the original transaction comes back
	ctx := context.Background()
	p := approve()
	c, mem := newCollector(t, p)
	req := rent.CollectRequest{StylistID: "1", Method: generic.MethodPayPal, IdempotencyKey: "k1"}

	first, err := c.Collect(ctx, req)
	require.NoError(t, err)
	second, err := c.Collect(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)

	all, err := mem.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

// gatedProcessor holds the first charge until release is closed.
type gatedProcessor struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (p *gatedProcessor) Charge(_ context.Context, _ rent.Charge) (rent.Receipt, error) {
	p.mu.Lock()
	p.calls++
	first := p.calls == 1
	p.mu.Unlock()
	if first {
		close(p.entered)
		<-p.release
	}
	return rent.Receipt{Reference: "TXN_GATED", Approved: true}, nil
}

func TestCollect_ConcurrentSameKeyChargesOnce(t *testing.T) {
	// GIVEN: A charge for key k1 is still at the processor
	// WHEN: A retry with k1 arrives before it finishes
	// THEN: The retry waits and replays; the processor is called once
	ctx := context.Background()
	p := &gatedProcessor{entered: make(chan struct{}), release: make(chan struct{})}
	c, mem := newCollector(t, p)
	req := rent.CollectRequest{StylistID: "2", Method: generic.MethodCard, IdempotencyKey: "k1"}

	results := make([]rent.CollectResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = c.Collect(ctx, req)
	}()
	<-p.entered
	go func() {
		defer wg.Done()
		results[1], errs[1] = c.Collect(ctx, req)
	}()
	time.Sleep(20 * time.Millisecond)
	close(p.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, p.calls)
	assert.False(t, results[0].Replayed)
	assert.True(t, results[1].Replayed)
	assert.Equal(t, results[0].Transaction.ID, results[1].Transaction.ID)

	all, err := mem.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestCollect_DifferentKeysDoNotWait(t *testing.T) {
	ctx := context.Background()
	p := &gatedProcessor{entered: make(chan struct{}), release: make(chan struct{})}
	c, _ := newCollector(t, p)

	done := make(chan error, 1)
	go func() {
		_, err := c.Collect(ctx, rent.CollectRequest{StylistID: "2", Method: generic.MethodCard, IdempotencyKey: "k1"})
		done <- err
	}()
	<-p.entered

	_, err := c.Collect(ctx, rent.CollectRequest{StylistID: "1", Method: generic.MethodCard, IdempotencyKey: "k2"})
	require.NoError(t, err)

	close(p.release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, p.calls)
}

func TestCollect_ReplayedDeclineStillFails(t *testing.T) {
	ctx := context.Background()
	p := decline("Payment processor timeout")
	c, _ := newCollector(t, p)
	req := rent.CollectRequest{StylistID: "1", Method: generic.MethodCard, IdempotencyKey: "k2"}

	_, err := c.Collect(ctx, req)
	require.ErrorIs(t, err, generic.ErrPaymentFailed)
	result, err := c.Collect(ctx, req)
	require.ErrorIs(t, err, generic.ErrPaymentFailed)

	assert.True(t, result.Replayed)
	assert.Equal(t, 1, p.calls)
}

func TestCollect_InputErrors(t *testing.T) {
	ctx := context.Background()
	p := approve()
	c, _ := newCollector(t, p)

	_, err := c.Collect(ctx, rent.CollectRequest{StylistID: "99", Method: generic.MethodCard})
	assert.ErrorIs(t, err, generic.ErrStylistNotFound)

	_, err = c.Collect(ctx, rent.CollectRequest{StylistID: "1", Method: "cash"})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = c.Collect(ctx, rent.CollectRequest{Method: generic.MethodCard})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	assert.Equal(t, 0, p.calls)
}

func TestCollect_ProcessorErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	c, mem := newCollector(t, &scriptedProcessor{err: context.DeadlineExceeded})

	_, err := c.Collect(ctx, rent.CollectRequest{StylistID: "1", Method: generic.MethodCard})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	all, err := mem.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// =============================================================================
// SIMULATED PROCESSOR TESTS
// =============================================================================

func TestSimulatedProcessor_Approves(t *testing.T) {
	p := rent.NewSimulatedProcessor(rent.ProcessorConfig{SuccessRate: 1}, rand.NewSource(1))
	p.Now = func() time.Time { return fixedNow }

	r, err := p.Charge(context.Background(), rent.Charge{Amount: generic.NewMoney(250, generic.USD), Method: generic.MethodCard})
	require.NoError(t, err)

	assert.True(t, r.Approved)
	prefix := "TXN_1762959845000_"
	require.True(t, strings.HasPrefix(r.Reference, prefix), r.Reference)
	assert.Len(t, strings.TrimPrefix(r.Reference, prefix), 9)
}

func TestSimulatedProcessor_Declines(t *testing.T) {
	p := rent.NewSimulatedProcessor(rent.ProcessorConfig{SuccessRate: 0}, rand.NewSource(1))
	p.Now = func() time.Time { return fixedNow }

	r, err := p.Charge(context.Background(), rent.Charge{Amount: generic.NewMoney(250, generic.USD), Method: generic.MethodCard})
	require.NoError(t, err)

	assert.False(t, r.Approved)
	assert.Equal(t, "TXN_FAILED_1762959845000", r.Reference)
	assert.Contains(t, rent.DeclineMessages, r.Message)
}

func TestSimulatedProcessor_SameSeedSameOutcomes(t *testing.T) {
	charge := rent.Charge{Amount: generic.NewMoney(250, generic.USD), Method: generic.MethodCard}
	run := func() []bool {
		p := rent.NewSimulatedProcessor(rent.ProcessorConfig{SuccessRate: 0.5}, rand.NewSource(42))
		var out []bool
		for i := 0; i < 20; i++ {
			r, err := p.Charge(context.Background(), charge)
			require.NoError(t, err)
			out = append(out, r.Approved)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestSimulatedProcessor_HonorsCancellation(t *testing.T) {
	p := rent.NewSimulatedProcessor(rent.ProcessorConfig{SuccessRate: 1, MinDelay: time.Hour, MaxDelay: time.Hour}, rand.NewSource(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Charge(ctx, rent.Charge{Amount: generic.NewMoney(250, generic.USD), Method: generic.MethodCard})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedProcessor_RejectsNonPositiveAmount(t *testing.T) {
	p := rent.NewSimulatedProcessor(rent.DefaultProcessorConfig(), rand.NewSource(1))
	_, err := p.Charge(context.Background(), rent.Charge{Amount: generic.NewMoney(0, generic.USD)})
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}

// =============================================================================
// DIRECTORY TESTS
// =============================================================================

func TestNewStylist_Validate(t *testing.T) {
	valid := rent.NewStylist{Name: "Ana", BoothNumber: "B-105", WeeklyRent: generic.NewMoney(200, generic.USD), RentType: rent.RentFixed}
	require.NoError(t, valid.Validate())

	missing := valid
	missing.Name = "  "
	assert.ErrorIs(t, missing.Validate(), generic.ErrInvalidInput)

	zero := valid
	zero.WeeklyRent = generic.NewMoney(0, generic.USD)
	assert.ErrorIs(t, zero.Validate(), generic.ErrInvalidAmount)

	unknown := valid
	unknown.RentType = "Hourly"
	assert.ErrorIs(t, unknown.Validate(), generic.ErrInvalidInput)

	tooHigh := decimal.NewFromInt(150)
	rate := valid
	rate.RentType = rent.RentPercentage
	rate.PercentageRate = &tooHigh
	assert.ErrorIs(t, rate.Validate(), generic.ErrInvalidInput)
}

func TestDirectory_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	d := rent.NewDirectory(mem, zerolog.Nop())
	d.NewID = func() string { return "5" }
	d.Now = func() time.Time { return fixedNow }

	fifteen := decimal.NewFromInt(15)
	created, err := d.Create(ctx, rent.NewStylist{
		Name: "Ana Lopez", BoothNumber: "B-105", WeeklyRent: generic.NewMoney(200, generic.USD),
		RentType: rent.RentFixed, PercentageRate: &fifteen,
	})
	require.NoError(t, err)
	assert.Equal(t, rent.StatusPending, created.Status)
	assert.Nil(t, created.LastPayment)
	assert.Nil(t, created.PercentageRate, "fixed rent drops the percentage rate")

	// Partial update: only rent type and rate change.
	pct := rent.RentPercentage
	updated, err := d.Update(ctx, "5", rent.StylistUpdate{RentType: &pct, PercentageRate: &fifteen})
	require.NoError(t, err)
	assert.Equal(t, rent.RentPercentage, updated.RentType)
	assert.True(t, updated.PercentageRate.Equal(fifteen))
	assert.Equal(t, "200.00", updated.WeeklyRent.String())

	negative := generic.NewMoney(-5, generic.USD)
	_, err = d.Update(ctx, "5", rent.StylistUpdate{WeeklyRent: &negative})
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	_, err = d.Update(ctx, "nope", rent.StylistUpdate{})
	assert.ErrorIs(t, err, generic.ErrStylistNotFound)
}

func TestDirectory_MarkOverdue(t *testing.T) {
	// GIVEN: The demo stylists and a 7 day grace period ending 2024-11-03
	// WHEN: The sweep runs twice
	// THEN: Only Michael (last paid 2024-10-28) is flagged, and only once
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, rent.Seed(ctx, mem, fixedNow))
	d := rent.NewDirectory(mem, zerolog.Nop())

	today := generic.NewDate(2024, time.November, 10)
	flagged, err := d.MarkOverdue(ctx, today, 7)
	require.NoError(t, err)
	assert.Equal(t, []generic.EntityID{"2"}, flagged)

	michael, err := mem.GetStylist(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, rent.StatusOverdue, michael.Status)

	jessica, err := mem.GetStylist(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, rent.StatusPaid, jessica.Status)

	flagged, err = d.MarkOverdue(ctx, today, 7)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

// =============================================================================
// SEED TESTS
// =============================================================================

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	seeded, err := rent.SeedIfEmpty(ctx, mem, fixedNow)
	require.NoError(t, err)
	assert.True(t, seeded)

	stylists, err := mem.ListStylists(ctx)
	require.NoError(t, err)
	require.Len(t, stylists, 4)
	assert.Equal(t, "Jessica Martinez", stylists[0].Name)
	assert.Equal(t, rent.StatusOverdue, stylists[3].Status)

	txs, err := mem.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 4)
	assert.Equal(t, "TXN_20241105_001", txs[0].Reference)

	seeded, err = rent.SeedIfEmpty(ctx, mem, fixedNow)
	require.NoError(t, err)
	assert.False(t, seeded)
}

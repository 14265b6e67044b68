/*
collect.go - Charge a stylist and record the attempt

PURPOSE:
  The Collector is the only writer of payment transactions. Every attempt
  lands in the ledger, declines included, and the stylist's status follows
  the outcome.

FLOW:
  0. Requests sharing an idempotency key run one at a time
  1. Replay: an idempotency key seen before returns the original result
  2. Load the stylist and charge WeeklyRent through the Processor
  3. Append the transaction (Success, Pending for ACH, or Failed)
  4. On approval, mark the stylist Paid (Pending for ACH) with LastPayment

SEE ALSO:
  - generic/ledger.go: Append-only log with idempotency
  - processor.go: Payment gateway boundary
*/
package rent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/boothrent/generic"
)

type CollectRequest struct {
	StylistID      generic.EntityID
	Method         generic.PaymentMethod
	IdempotencyKey string
}

type CollectResult struct {
	Transaction generic.Transaction
	Replayed    bool // an earlier request with the same key produced this result
}

type Collector struct {
	Store     Store
	Ledger    generic.Ledger
	Processor Processor
	Logger    zerolog.Logger
	Now       func() time.Time
	NewID     func() string

	mu   sync.Mutex // serializes stylist status writes
	keys keyLocks
}

func NewCollector(store Store, processor Processor, logger zerolog.Logger) *Collector {
	return &Collector{
		Store:     store,
		Ledger:    generic.NewLedger(store),
		Processor: processor,
		Logger:    logger.With().Str("component", "collector").Logger(),
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Collect charges the stylist's weekly rent. A declined charge is recorded
// and returned together with a *generic.PaymentFailedError.
func (c *Collector) Collect(ctx context.Context, req CollectRequest) (CollectResult, error) {
	if req.StylistID == "" {
		return CollectResult{}, fmt.Errorf("%w: stylistId is required", generic.ErrInvalidInput)
	}
	if !req.Method.Valid() {
		return CollectResult{}, fmt.Errorf("%w: unsupported payment method %q", generic.ErrInvalidInput, req.Method)
	}

	if req.IdempotencyKey != "" {
		unlock := c.keys.lock(req.IdempotencyKey)
		defer unlock()
	}

	if prior, err := c.Ledger.Replay(ctx, req.IdempotencyKey); err != nil {
		return CollectResult{}, err
	} else if prior != nil {
		return c.replayed(*prior)
	}

	stylist, err := c.Store.GetStylist(ctx, req.StylistID)
	if err != nil {
		return CollectResult{}, err
	}

	log := c.Logger.With().
		Str("stylist_id", string(stylist.ID)).
		Str("method", string(req.Method)).
		Logger()

	receipt, err := c.Processor.Charge(ctx, Charge{
		StylistID:      stylist.ID,
		Amount:         stylist.WeeklyRent,
		Method:         req.Method,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		log.Error().Err(err).Msg("processor unavailable")
		return CollectResult{}, fmt.Errorf("charge stylist %s: %w", stylist.ID, err)
	}

	now := c.Now()
	tx := generic.Transaction{
		ID:             generic.TransactionID(c.NewID()),
		Reference:      receipt.Reference,
		EntityID:       stylist.ID,
		EntityName:     stylist.Name,
		Date:           generic.DateOf(now),
		Amount:         stylist.WeeklyRent,
		Method:         req.Method,
		Status:         outcome(receipt, req.Method),
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
	}
	if receipt.Approved {
		tx.Notes = strings.ToUpper(string(req.Method)) + " payment processed"
	} else {
		tx.Notes = receipt.Message
	}

	if err := c.Ledger.Append(ctx, tx); err != nil {
		if generic.IsDuplicate(err) {
			// Another collector sharing the store wrote this key first.
			if prior, rerr := c.Ledger.Replay(ctx, req.IdempotencyKey); rerr == nil && prior != nil {
				return c.replayed(*prior)
			}
		}
		return CollectResult{}, err
	}

	if !receipt.Approved {
		log.Warn().Str("reference", tx.Reference).Str("reason", receipt.Message).Msg("payment declined")
		return CollectResult{Transaction: tx}, &generic.PaymentFailedError{Transaction: tx, Reason: receipt.Message}
	}

	if err := c.markPaid(ctx, stylist.ID, tx); err != nil {
		return CollectResult{Transaction: tx}, err
	}
	log.Info().Str("reference", tx.Reference).Str("status", string(tx.Status)).Str("amount", tx.Amount.String()).Msg("payment recorded")
	return CollectResult{Transaction: tx}, nil
}

func (c *Collector) replayed(tx generic.Transaction) (CollectResult, error) {
	c.Logger.Debug().Str("idempotency_key", tx.IdempotencyKey).Str("reference", tx.Reference).Msg("replayed collection")
	result := CollectResult{Transaction: tx, Replayed: true}
	if tx.Status == generic.StatusFailed {
		return result, &generic.PaymentFailedError{Transaction: tx, Reason: tx.Notes}
	}
	return result, nil
}

// markPaid reloads the stylist so a concurrent rent update is not lost.
func (c *Collector) markPaid(ctx context.Context, id generic.EntityID, tx generic.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stylist, err := c.Store.GetStylist(ctx, id)
	if err != nil {
		return err
	}
	stylist.Status = StatusPaid
	if tx.Status == generic.StatusPending {
		stylist.Status = StatusPending
	}
	paidOn := tx.Date
	stylist.LastPayment = &paidOn
	return c.Store.SaveStylist(ctx, *stylist)
}

// keyLocks hands out one mutex per idempotency key, so a retry waits for
// the in-flight charge and then replays it instead of charging again.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// outcome maps an approved ACH debit to Pending until the bank clears it.
func outcome(r Receipt, method generic.PaymentMethod) generic.TransactionStatus {
	switch {
	case !r.Approved:
		return generic.StatusFailed
	case method == generic.MethodACH:
		return generic.StatusPending
	default:
		return generic.StatusSuccess
	}
}

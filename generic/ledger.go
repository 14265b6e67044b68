/*
ledger.go - Append-only payment log

PURPOSE:
  The Ledger is the immutable record of every payment attempt. Totals
  are always computed by replaying transactions; there is no separate
  "amount paid" field that can get out of sync.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. IMMUTABLE: Once written, transactions cannot be modified
  3. IDEMPOTENT: Same idempotency key = same transaction (no double charge)

SEE ALSO:
  - store.go: Low-level persistence interface
  - rent/collect.go: Writes charges through the ledger
*/
package generic

import (
	"context"
	"errors"
)

// Ledger is the source of truth for collected rent.
type Ledger interface {
	// Append adds a transaction. Fails if idempotency key exists.
	Append(ctx context.Context, tx Transaction) error

	// Replay returns the transaction previously written under key, or nil.
	Replay(ctx context.Context, key string) (*Transaction, error)

	// Transactions returns one entity's history, newest first.
	Transactions(ctx context.Context, entityID EntityID) ([]Transaction, error)

	// Collected sums settled transactions for an entity inside a period.
	Collected(ctx context.Context, entityID EntityID, period Period, currency Currency) (Money, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, tx Transaction) error {
	if tx.IdempotencyKey != "" {
		existing, err := l.Store.FindByIdempotencyKey(ctx, tx.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, tx)
}

func (l *DefaultLedger) Replay(ctx context.Context, key string) (*Transaction, error) {
	if key == "" {
		return nil, nil
	}
	return l.Store.FindByIdempotencyKey(ctx, key)
}

func (l *DefaultLedger) Transactions(ctx context.Context, entityID EntityID) ([]Transaction, error) {
	return l.Store.ListByEntity(ctx, entityID)
}

func (l *DefaultLedger) Collected(ctx context.Context, entityID EntityID, period Period, currency Currency) (Money, error) {
	if err := period.Validate(); err != nil {
		return Money{}, err
	}
	txs, err := l.Store.ListByEntity(ctx, entityID)
	if err != nil {
		return Money{}, err
	}

	total := NewMoney(0, currency)
	for _, tx := range txs {
		if !tx.Settled() || !period.Contains(tx.Date) || tx.Amount.Currency != currency {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total, nil
}

// IsDuplicate is shorthand for callers that treat a replayed key as success.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}

/*
store.go - Persistence interface for payment transactions

PURPOSE:
  Defines the interface between the domain logic and the database.
  The Store handles persistence while maintaining append-only semantics.
  Different implementations can use SQLite or in-memory storage.

APPEND-ONLY CONTRACT:
  - Append(): Single transaction write
  - NO Update() or Delete() methods exist
  - A failed charge is recorded too; it is never rewritten into a success

IDEMPOTENCY:
  Every charge carries an idempotency key. If the key already exists,
  the write is rejected with ErrDuplicateIdempotencyKey. This prevents
  double charges from network retries or double-clicks on "Collect".

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using Store
*/
package generic

import "context"

// =============================================================================
// STORE - Interface for transaction persistence (append-only)
// =============================================================================

// Store handles persistence of transactions.
// Store is APPEND-ONLY. No Update, No Delete.
type Store interface {
	// Append persists a transaction. Returns ErrDuplicateIdempotencyKey if the key exists.
	Append(ctx context.Context, tx Transaction) error

	// GetTransaction returns ErrTransactionNotFound for unknown IDs.
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)

	// FindByIdempotencyKey returns (nil, nil) when no transaction carries the key.
	FindByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	// ListTransactions returns every transaction, newest first.
	ListTransactions(ctx context.Context) ([]Transaction, error)

	// ListByEntity returns one entity's transactions, newest first.
	ListByEntity(ctx context.Context, entityID EntityID) ([]Transaction, error)
}

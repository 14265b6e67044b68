// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/boothrent/generic"
	"github.com/warp/boothrent/rent"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements rent.Store. Transactions are append-only; stylists are
// upserted.
type Memory struct {
	mu           sync.RWMutex
	transactions []generic.Transaction
	idempotency  map[string]int // key -> index into transactions
	stylists     map[generic.EntityID]rent.Stylist
}

var _ rent.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		idempotency: make(map[string]int),
		stylists:    make(map[generic.EntityID]rent.Stylist),
	}
}

// Append adds a single transaction. Append-only.
func (m *Memory) Append(_ context.Context, tx generic.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.IdempotencyKey != "" {
		if _, ok := m.idempotency[tx.IdempotencyKey]; ok {
			return generic.ErrDuplicateIdempotencyKey
		}
		m.idempotency[tx.IdempotencyKey] = len(m.transactions)
	}
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, id generic.TransactionID) (*generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, tx := range m.transactions {
		if tx.ID == id {
			cp := tx
			return &cp, nil
		}
	}
	return nil, generic.ErrTransactionNotFound
}

func (m *Memory) FindByIdempotencyKey(_ context.Context, key string) (*generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.idempotency[key]
	if !ok {
		return nil, nil
	}
	cp := m.transactions[idx]
	return &cp, nil
}

func (m *Memory) ListTransactions(_ context.Context) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.transactions, func(generic.Transaction) bool { return true }), nil
}

func (m *Memory) ListByEntity(_ context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.transactions, func(tx generic.Transaction) bool { return tx.EntityID == entityID }), nil
}

// newestFirst orders by date, then by insertion (later appends first).
func newestFirst(all []generic.Transaction, keep func(generic.Transaction) bool) []generic.Transaction {
	type indexed struct {
		tx  generic.Transaction
		pos int
	}
	var picked []indexed
	for i, tx := range all {
		if keep(tx) {
			picked = append(picked, indexed{tx: tx, pos: i})
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if !picked[i].tx.Date.Equal(picked[j].tx.Date) {
			return picked[i].tx.Date.After(picked[j].tx.Date)
		}
		return picked[i].pos > picked[j].pos
	})

	result := make([]generic.Transaction, len(picked))
	for i, p := range picked {
		result[i] = p.tx
	}
	return result
}

// =============================================================================
// STYLIST DIRECTORY
// =============================================================================

func (m *Memory) ListStylists(_ context.Context) ([]rent.Stylist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]rent.Stylist, 0, len(m.stylists))
	for _, s := range m.stylists {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) GetStylist(_ context.Context, id generic.EntityID) (*rent.Stylist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stylists[id]
	if !ok {
		return nil, generic.ErrStylistNotFound
	}
	return &s, nil
}

func (m *Memory) SaveStylist(_ context.Context, s rent.Stylist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stylists[s.ID] = s
	return nil
}

// Reset drops all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = nil
	m.idempotency = make(map[string]int)
	m.stylists = make(map[generic.EntityID]rent.Stylist)
	return nil
}

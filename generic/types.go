/*
Package generic provides the shared primitives of the booth rent system.

PURPOSE:
  Domain-agnostic building blocks used by the schedule engine and the
  rent collaborator layer: calendar dates, date periods, money, and the
  append-only payment ledger with its storage interface.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A decimal amount with a currency (never float64 arithmetic)
  - Transaction: An immutable ledger entry recording a payment attempt
  - Entity/Transaction IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, failed attempts included
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Type Safety: Strong typing for IDs prevents mixing stylist/transaction IDs
  4. Idempotency: Every charge carries a key so retries never double-charge

USAGE:
  rent := generic.NewMoney(250, generic.USD)
  tx := generic.Transaction{
      EntityID: "1",
      Amount:   rent,
      Method:   generic.MethodCard,
      Status:   generic.StatusSuccess,
  }

SEE ALSO:
  - time.go: Date and calendar arithmetic
  - ledger.go: Transaction persistence contract
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal amount with currency
// =============================================================================

type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

type Currency string

const USD Currency = "USD"

func NewMoney(value float64, currency Currency) Money {
	return Money{Amount: decimal.NewFromFloat(value), Currency: currency}
}

func NewMoneyFromString(s string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Amount: d, Currency: currency}, nil
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (m Money) Zero() Money                   { return Money{Amount: decimal.Zero, Currency: m.Currency} }
func (m Money) Add(b Money) Money             { return Money{Amount: m.Amount.Add(b.Amount), Currency: m.Currency} }
func (m Money) Sub(b Money) Money             { return Money{Amount: m.Amount.Sub(b.Amount), Currency: m.Currency} }
func (m Money) Mul(s decimal.Decimal) Money   { return Money{Amount: m.Amount.Mul(s), Currency: m.Currency} }
func (m Money) IsZero() bool                  { return m.Amount.IsZero() }
func (m Money) IsPositive() bool              { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool              { return m.Amount.IsNegative() }
func (m Money) Equal(b Money) bool            { return m.Currency == b.Currency && m.Amount.Equal(b.Amount) }
func (m Money) Float64() float64              { f, _ := m.Amount.Float64(); return f }
func (m Money) String() string                { return m.Amount.StringFixed(2) }

// Cents is the amount in minor units, the form processors charge in.
func (m Money) Cents() int64 { return m.Amount.Shift(2).Round(0).IntPart() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntityID string
type TransactionID string

// =============================================================================
// TRANSACTION - One payment attempt
// =============================================================================

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "card"
	MethodACH    PaymentMethod = "ach"
	MethodPayPal PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodACH, MethodPayPal:
		return true
	}
	return false
}

type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "Success"
	StatusPending TransactionStatus = "Pending" // ACH initiated, not yet cleared
	StatusFailed  TransactionStatus = "Failed"
)

type Transaction struct {
	ID             TransactionID
	Reference      string // processor reference, e.g. TXN_1730851200000_k3j9x0a1b
	EntityID       EntityID
	EntityName     string
	Date           Date
	Amount         Money
	Method         PaymentMethod
	Status         TransactionStatus
	Notes          string
	IdempotencyKey string
	CreatedAt      time.Time
}

// Settled reports whether the transaction moved money (or will, for ACH).
func (t Transaction) Settled() bool {
	return t.Status == StatusSuccess || t.Status == StatusPending
}

/*
Package rent is the booth rent collaborator around the schedule engine.

PURPOSE:
  Stylists rent booths and pay a weekly amount. This package holds the
  stylist directory, the simulated payment processor, and the Collector
  that charges a stylist and records the attempt in the ledger.

RENT TYPES:
  Fixed:       The stylist pays WeeklyRent every week
  Percentage:  WeeklyRent is the agreed minimum; PercentageRate records the
               commission share for reporting

STATUS:
  Paid:     Last charge settled by card or PayPal
  Pending:  New stylist, or an ACH transfer is still clearing
  Overdue:  Set by the operator (seed data) when rent is behind

NON-GOALS:
  Schedules are not stored and projected dates never trigger charges.
  Collection only happens when the operator asks for it.

SEE ALSO:
  - collect.go:   Charging and ledger writes
  - processor.go: Simulated payment processor
  - seed.go:      Demo stylists and transactions
  - schedule/:    The recurrence engine
*/
package rent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/boothrent/generic"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

type RentType string

const (
	RentFixed      RentType = "Fixed"
	RentPercentage RentType = "Percentage"
)

func (r RentType) Valid() bool { return r == RentFixed || r == RentPercentage }

type Status string

const (
	StatusPaid    Status = "Paid"
	StatusPending Status = "Pending"
	StatusOverdue Status = "Overdue"
)

// =============================================================================
// STYLIST
// =============================================================================

type Stylist struct {
	ID             generic.EntityID
	Name           string
	BoothNumber    string
	WeeklyRent     generic.Money
	RentType       RentType
	PercentageRate *decimal.Decimal // Percentage rent only
	Status         Status
	LastPayment    *generic.Date
	CreatedAt      time.Time
}

// NewStylist is the operator's input when adding a booth renter.
type NewStylist struct {
	Name           string
	BoothNumber    string
	WeeklyRent     generic.Money
	RentType       RentType
	PercentageRate *decimal.Decimal
}

// Validate checks required fields. Percentage rates are kept only for
// percentage rent.
func (n NewStylist) Validate() error {
	var missing []string
	if strings.TrimSpace(n.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(n.BoothNumber) == "" {
		missing = append(missing, "boothNumber")
	}
	if n.RentType == "" {
		missing = append(missing, "rentType")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", generic.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if !n.WeeklyRent.IsPositive() {
		return fmt.Errorf("%w: weekly rent must be greater than zero", generic.ErrInvalidAmount)
	}
	if !n.RentType.Valid() {
		return fmt.Errorf("%w: unknown rent type %q", generic.ErrInvalidInput, n.RentType)
	}
	return validRate(n.PercentageRate)
}

// Build creates the stylist record. New stylists start Pending with no payment.
func (n NewStylist) Build(id generic.EntityID, now time.Time) Stylist {
	s := Stylist{
		ID:          id,
		Name:        strings.TrimSpace(n.Name),
		BoothNumber: strings.TrimSpace(n.BoothNumber),
		WeeklyRent:  n.WeeklyRent,
		RentType:    n.RentType,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	if n.RentType == RentPercentage {
		s.PercentageRate = n.PercentageRate
	}
	return s
}

// StylistUpdate is a partial update; nil fields are left unchanged.
type StylistUpdate struct {
	RentType       *RentType
	WeeklyRent     *generic.Money
	PercentageRate *decimal.Decimal
}

// Apply returns the updated stylist or an input error. The receiver is not modified.
func (u StylistUpdate) Apply(s Stylist) (Stylist, error) {
	if u.RentType != nil {
		if !u.RentType.Valid() {
			return s, fmt.Errorf("%w: unknown rent type %q", generic.ErrInvalidInput, *u.RentType)
		}
		s.RentType = *u.RentType
	}
	if u.WeeklyRent != nil {
		if !u.WeeklyRent.IsPositive() {
			return s, fmt.Errorf("%w: weekly rent must be greater than zero", generic.ErrInvalidAmount)
		}
		s.WeeklyRent = *u.WeeklyRent
	}
	if u.PercentageRate != nil {
		if err := validRate(u.PercentageRate); err != nil {
			return s, err
		}
		s.PercentageRate = u.PercentageRate
	}
	return s, nil
}

func validRate(rate *decimal.Decimal) error {
	if rate == nil {
		return nil
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage rate must be between 0 and 100", generic.ErrInvalidInput)
	}
	return nil
}

// =============================================================================
// STORE
// =============================================================================

// Store persists stylists next to the append-only transaction log.
type Store interface {
	generic.Store

	// ListStylists returns stylists in creation order.
	ListStylists(ctx context.Context) ([]Stylist, error)

	// GetStylist returns generic.ErrStylistNotFound for unknown IDs.
	GetStylist(ctx context.Context, id generic.EntityID) (*Stylist, error)

	// SaveStylist inserts or replaces a stylist.
	SaveStylist(ctx context.Context, s Stylist) error

	// Reset drops all stylists and transactions (demo reset only).
	Reset(ctx context.Context) error
}

/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - Schedule and input validation failures
  2. Ledger errors - Transaction persistence failures
  3. Lookup errors - Missing stylists or transactions

USAGE:
  if errors.Is(err, generic.ErrInvalidSchedule) {
      var verr *generic.ValidationError
      errors.As(err, &verr)
      render(verr.Problems)
  }

SEE ALSO:
  - ledger.go: Uses these errors
  - schedule/validate.go: Produces ValidationError problems
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a transaction with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidSchedule is returned when a schedule configuration cannot be
	// used for projection or export.
	ErrInvalidSchedule = errors.New("invalid schedule configuration")

	// ErrInvalidDate is returned for malformed calendar dates.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidInput is returned for malformed request fields outside schedules.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAmount is returned for malformed or non-positive money values.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrStylistNotFound is returned when a referenced stylist doesn't exist.
	ErrStylistNotFound = errors.New("stylist not found")

	// ErrTransactionNotFound is returned when a referenced transaction doesn't exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPaymentFailed is returned when the processor declines a charge.
	ErrPaymentFailed = errors.New("payment failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError lists every configuration problem found in one pass.
type ValidationError struct {
	Problems []string
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schedule configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSchedule
}

// PaymentFailedError carries the declined transaction so callers can show
// the processor's message and the recorded reference.
type PaymentFailedError struct {
	Transaction Transaction
	Reason      string
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment failed for %s (%s): %s", e.Transaction.EntityID, e.Transaction.Reference, e.Reason)
}

func (e *PaymentFailedError) Unwrap() error {
	return ErrPaymentFailed
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSchedule) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStylistNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

package rent

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/boothrent/generic"
)

// =============================================================================
// DEMO DATA
// =============================================================================

func seedDate(s string) *generic.Date {
	d := generic.MustParseDate(s)
	return &d
}

// SeedStylists returns the four demo booth renters.
func SeedStylists(now time.Time) []Stylist {
	twenty := decimal.NewFromInt(20)
	return []Stylist{
		{ID: "1", Name: "Jessica Martinez", BoothNumber: "B-101", WeeklyRent: generic.NewMoney(250, generic.USD),
			RentType: RentFixed, Status: StatusPaid, LastPayment: seedDate("2024-11-04"), CreatedAt: now},
		{ID: "2", Name: "Michael Chen", BoothNumber: "B-102", WeeklyRent: generic.NewMoney(300, generic.USD),
			RentType: RentFixed, Status: StatusPending, LastPayment: seedDate("2024-10-28"), CreatedAt: now.Add(time.Millisecond)},
		{ID: "3", Name: "Sarah Johnson", BoothNumber: "B-103", WeeklyRent: generic.NewMoney(275, generic.USD),
			RentType: RentPercentage, PercentageRate: &twenty, Status: StatusPaid, LastPayment: seedDate("2024-11-05"), CreatedAt: now.Add(2 * time.Millisecond)},
		{ID: "4", Name: "David Rodriguez", BoothNumber: "B-104", WeeklyRent: generic.NewMoney(225, generic.USD),
			RentType: RentFixed, Status: StatusOverdue, LastPayment: seedDate("2024-10-15"), CreatedAt: now.Add(3 * time.Millisecond)},
	}
}

// SeedTransactions returns the demo payment history, oldest first.
func SeedTransactions(now time.Time) []generic.Transaction {
	tx := func(id, ref, date, stylistID, name string, amount float64, method generic.PaymentMethod, status generic.TransactionStatus, notes string) generic.Transaction {
		return generic.Transaction{
			ID:             generic.TransactionID(id),
			Reference:      ref,
			EntityID:       generic.EntityID(stylistID),
			EntityName:     name,
			Date:           generic.MustParseDate(date),
			Amount:         generic.NewMoney(amount, generic.USD),
			Method:         method,
			Status:         status,
			Notes:          notes,
			IdempotencyKey: "seed-" + id,
			CreatedAt:      now,
		}
	}
	return []generic.Transaction{
		tx("4", "TXN_20241020_001", "2024-10-20", "4", "David Rodriguez", 225, generic.MethodCard, generic.StatusFailed, "Card declined - insufficient funds"),
		tx("3", "TXN_20241028_001", "2024-10-28", "2", "Michael Chen", 300, generic.MethodPayPal, generic.StatusSuccess, "PayPal payment completed"),
		tx("1", "TXN_20241104_001", "2024-11-04", "1", "Jessica Martinez", 250, generic.MethodCard, generic.StatusSuccess, "Weekly rent payment"),
		tx("2", "TXN_20241105_001", "2024-11-05", "3", "Sarah Johnson", 275, generic.MethodACH, generic.StatusPending, "ACH transfer initiated"),
	}
}

// Seed replaces the store contents with the demo data.
func Seed(ctx context.Context, store Store, now time.Time) error {
	if err := store.Reset(ctx); err != nil {
		return err
	}
	for _, s := range SeedStylists(now) {
		if err := store.SaveStylist(ctx, s); err != nil {
			return err
		}
	}
	for _, tx := range SeedTransactions(now) {
		if err := store.Append(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// SeedIfEmpty loads the demo data into a store with no stylists.
func SeedIfEmpty(ctx context.Context, store Store, now time.Time) (bool, error) {
	existing, err := store.ListStylists(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	return true, Seed(ctx, store, now)
}

package rent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/boothrent/generic"
)

// Directory manages booth renters.
type Directory struct {
	Store  Store
	Logger zerolog.Logger
	Now    func() time.Time
	NewID  func() string
}

func NewDirectory(store Store, logger zerolog.Logger) *Directory {
	return &Directory{
		Store:  store,
		Logger: logger.With().Str("component", "directory").Logger(),
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

func (d *Directory) List(ctx context.Context) ([]Stylist, error) {
	return d.Store.ListStylists(ctx)
}

func (d *Directory) Get(ctx context.Context, id generic.EntityID) (*Stylist, error) {
	return d.Store.GetStylist(ctx, id)
}

func (d *Directory) Create(ctx context.Context, n NewStylist) (Stylist, error) {
	if err := n.Validate(); err != nil {
		return Stylist{}, err
	}
	s := n.Build(generic.EntityID(d.NewID()), d.Now())
	if err := d.Store.SaveStylist(ctx, s); err != nil {
		return Stylist{}, err
	}
	d.Logger.Info().Str("stylist_id", string(s.ID)).Str("booth", s.BoothNumber).Msg("stylist created")
	return s, nil
}

func (d *Directory) Update(ctx context.Context, id generic.EntityID, u StylistUpdate) (Stylist, error) {
	current, err := d.Store.GetStylist(ctx, id)
	if err != nil {
		return Stylist{}, err
	}
	updated, err := u.Apply(*current)
	if err != nil {
		return Stylist{}, err
	}
	if err := d.Store.SaveStylist(ctx, updated); err != nil {
		return Stylist{}, err
	}
	d.Logger.Info().Str("stylist_id", string(id)).Str("weekly_rent", updated.WeeklyRent.String()).Msg("stylist updated")
	return updated, nil
}

// MarkOverdue flags every stylist whose last payment is more than graceDays
// before today. Stylists who never paid count from their creation date.
// It returns the IDs it changed.
func (d *Directory) MarkOverdue(ctx context.Context, today generic.Date, graceDays int) ([]generic.EntityID, error) {
	stylists, err := d.Store.ListStylists(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := today.AddDays(-graceDays)
	var flagged []generic.EntityID
	for _, s := range stylists {
		if s.Status == StatusOverdue {
			continue
		}
		since := generic.DateOf(s.CreatedAt)
		if s.LastPayment != nil {
			since = *s.LastPayment
		}
		if !since.Before(cutoff) {
			continue
		}
		s.Status = StatusOverdue
		if err := d.Store.SaveStylist(ctx, s); err != nil {
			return flagged, err
		}
		flagged = append(flagged, s.ID)
		d.Logger.Warn().Str("stylist_id", string(s.ID)).Str("since", since.String()).Msg("rent overdue")
	}
	return flagged, nil
}

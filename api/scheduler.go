/*
scheduler.go - Background overdue sweep

PURPOSE:
  Periodically flags stylists whose last rent payment is older than the
  grace period. It only changes the displayed status; it never charges.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - Uses the Handler's clock so "today" matches the API

CONFIGURATION:
  - overdue.enabled:    off by default (the demo data is historical)
  - overdue.interval:   how often to check (default: 1 hour)
  - overdue.grace_days: days after the last payment (default: 7)

USAGE:
  sweeper := NewOverdueScheduler(handler, time.Hour, 7)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - rent/stylists.go: Directory.MarkOverdue
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// OverdueScheduler runs Directory.MarkOverdue on a ticker.
type OverdueScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	GraceDays     int
	Logger        zerolog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewOverdueScheduler(h *Handler, interval time.Duration, graceDays int) *OverdueScheduler {
	return &OverdueScheduler{
		Handler:       h,
		CheckInterval: interval,
		GraceDays:     graceDays,
		Logger:        h.Logger.With().Str("component", "overdue").Logger(),
	}
}

// Start begins the sweep. Calling Start twice is a no-op.
func (s *OverdueScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.Logger.Info().Dur("interval", s.CheckInterval).Int("grace_days", s.GraceDays).Msg("overdue sweep started")
}

// Stop halts the sweep and waits for an in-flight check to finish.
func (s *OverdueScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Logger.Info().Msg("overdue sweep stopped")
}

func (s *OverdueScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	s.Sweep(context.Background())
	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-stop:
			return
		}
	}
}

// Sweep runs one check and returns how many stylists were flagged.
func (s *OverdueScheduler) Sweep(ctx context.Context) int {
	flagged, err := s.Handler.Directory.MarkOverdue(ctx, s.Handler.today(), s.GraceDays)
	if err != nil {
		s.Logger.Error().Err(err).Msg("overdue sweep failed")
	}
	if len(flagged) > 0 {
		s.Logger.Info().Int("flagged", len(flagged)).Msg("overdue sweep complete")
	}
	return len(flagged)
}

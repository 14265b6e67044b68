/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the booth rent automation server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Build the logger
  3. Initialize SQLite store (and seed demo data when empty)
  4. Create API handler with the simulated payment processor
  5. Configure HTTP router
  6. Start server (and the overdue sweep when enabled) with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (default: ./boothrent.yaml if present)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides database.path
           Use ":memory:" for in-memory database

ENVIRONMENT:
  Every key can be set with the BOOTHRENT_ prefix, for example
  BOOTHRENT_LOG_FORMAT=json or BOOTHRENT_PAYMENTS_SUCCESS_RATE=1.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Stop the overdue sweep
  4. Close database connection

EXAMPLES:
  ./server -db=":memory:"
  BOOTHRENT_LOG_LEVEL=debug ./server -port=3001

SEE ALSO:
  - config/config.go: Keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/boothrent/api"
	"github.com/warp/boothrent/config"
	"github.com/warp/boothrent/logging"
	"github.com/warp/boothrent/rent"
	"github.com/warp/boothrent/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if cfg.Seed.Enabled {
		seeded, err := rent.SeedIfEmpty(ctx, store, time.Now())
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		if seeded {
			logger.Info().Msg("loaded demo stylists")
		}
	}

	processor := rent.NewSimulatedProcessor(rent.ProcessorConfig{
		SuccessRate: cfg.Payments.SuccessRate,
		MinDelay:    cfg.Payments.MinDelay,
		MaxDelay:    cfg.Payments.MaxDelay,
	}, nil)

	handler := api.NewHandler(store, processor, logger, api.Options{
		PreviewCount: cfg.Schedule.PreviewCount,
		MaxCount:     cfg.Schedule.MaxCount,
		RatePerSec:   cfg.Payments.RatePerSec,
		Burst:        cfg.Payments.Burst,
	})
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	if cfg.Overdue.Enabled {
		sweeper := api.NewOverdueScheduler(handler, cfg.Overdue.Interval, cfg.Overdue.GraceDays)
		sweeper.Start()
		defer sweeper.Stop()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Str("db", cfg.Database.Path).
			Str("mode", api.SimulationMode).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

/*
Package sqlite provides a SQLite-backed implementation of rent.Store.

PURPOSE:
  Persists the stylist directory and the append-only payment ledger so
  the demo survives restarts. Collection schedules are not stored.

INTERFACES IMPLEMENTED:
  generic.Store: Transaction persistence (append-only)
  rent.Store:    Stylist directory + demo reset

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the transactions table
  - No DELETE on transactions outside Reset (demo reset only)
  - A failed charge is a row too; it is never rewritten

KEY TABLES:
  stylists:      Booth renters, upserted by ID
  transactions:  Immutable ledger of every payment attempt

INDEXES:
  - idempotency_key UNIQUE: Rejects double charges at the database level
  - idx_transactions_stylist_date: Per-stylist history (newest first)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./boothrent.db")
  if err != nil {
      return err
  }
  defer store.Close()

  ledger := generic.NewLedger(store)

SEE ALSO:
  - generic/store.go: Transaction store contract
  - rent/types.go: rent.Store contract
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/boothrent/generic"
	"github.com/warp/boothrent/rent"
)

// Store implements rent.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ rent.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stylists (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		booth_number TEXT NOT NULL,
		weekly_rent TEXT NOT NULL,
		currency TEXT NOT NULL,
		rent_type TEXT NOT NULL,
		percentage_rate TEXT,
		status TEXT NOT NULL,
		last_payment TEXT,
		created_at TEXT NOT NULL
	);

	-- Transactions (append-only ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		reference TEXT NOT NULL,
		stylist_id TEXT NOT NULL REFERENCES stylists(id),
		stylist_name TEXT NOT NULL,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_stylist_date
		ON transactions(stylist_id, date DESC, seq DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(date DESC, seq DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION STORE (generic.Store interface)
// =============================================================================

const transactionColumns = `id, reference, stylist_id, stylist_name, date, amount, currency,
	method, status, notes, idempotency_key, created_at`

// Append adds a transaction to the ledger.
func (s *Store) Append(ctx context.Context, tx generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		tx.Reference,
		tx.EntityID,
		tx.EntityName,
		tx.Date.String(),
		tx.Amount.Amount.String(),
		tx.Amount.Currency,
		tx.Method,
		tx.Status,
		nullString(tx.Notes),
		nullString(tx.IdempotencyKey),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("append transaction for %s: %w", tx.EntityID, generic.ErrStylistNotFound)
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// GetTransaction returns a specific transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, id generic.TransactionID) (*generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, err := s.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, generic.ErrTransactionNotFound
	}
	return &txs[0], nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, err := s.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = ?`, key)
	if err != nil || len(txs) == 0 {
		return nil, err
	}
	return &txs[0], nil
}

// ListTransactions returns the whole ledger, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, seq DESC`)
}

func (s *Store) ListByEntity(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE stylist_id = ? ORDER BY date DESC, seq DESC`,
		entityID)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]generic.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []generic.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (generic.Transaction, error) {
	var (
		tx             generic.Transaction
		date           string
		amount         string
		currency       string
		notes          sql.NullString
		idempotencyKey sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&tx.ID, &tx.Reference, &tx.EntityID, &tx.EntityName,
		&date, &amount, &currency, &tx.Method, &tx.Status,
		&notes, &idempotencyKey, &createdAt,
	)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if tx.Date, err = generic.ParseDate(date); err != nil {
		return tx, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	tx.Amount = generic.Money{Amount: generic.MustParseDecimal(amount), Currency: generic.Currency(currency)}
	tx.Notes = notes.String
	tx.IdempotencyKey = idempotencyKey.String
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return tx, nil
}

// =============================================================================
// STYLIST DIRECTORY
// =============================================================================

const stylistColumns = `id, name, booth_number, weekly_rent, currency, rent_type,
	percentage_rate, status, last_payment, created_at`

// SaveStylist inserts or replaces a stylist.
func (s *Store) SaveStylist(ctx context.Context, st rent.Stylist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rate, lastPayment sql.NullString
	if st.PercentageRate != nil {
		rate = sql.NullString{String: st.PercentageRate.String(), Valid: true}
	}
	if st.LastPayment != nil {
		lastPayment = sql.NullString{String: st.LastPayment.String(), Valid: true}
	}

	query := `
		INSERT INTO stylists (` + stylistColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			booth_number = excluded.booth_number,
			weekly_rent = excluded.weekly_rent,
			currency = excluded.currency,
			rent_type = excluded.rent_type,
			percentage_rate = excluded.percentage_rate,
			status = excluded.status,
			last_payment = excluded.last_payment
	`

	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.Name, st.BoothNumber,
		st.WeeklyRent.Amount.String(), st.WeeklyRent.Currency,
		st.RentType, rate, st.Status, lastPayment,
		st.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save stylist: %w", err)
	}
	return nil
}

// GetStylist retrieves a stylist by ID.
func (s *Store) GetStylist(ctx context.Context, id generic.EntityID) (*rent.Stylist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+stylistColumns+` FROM stylists WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query stylist: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, generic.ErrStylistNotFound
	}
	st, err := scanStylist(rows)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStylists returns all stylists in creation order.
func (s *Store) ListStylists(ctx context.Context) ([]rent.Stylist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+stylistColumns+` FROM stylists ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stylists: %w", err)
	}
	defer rows.Close()

	stylists := []rent.Stylist{}
	for rows.Next() {
		st, err := scanStylist(rows)
		if err != nil {
			return nil, err
		}
		stylists = append(stylists, st)
	}
	return stylists, rows.Err()
}

func scanStylist(rows *sql.Rows) (rent.Stylist, error) {
	var (
		st          rent.Stylist
		weeklyRent  string
		currency    string
		rate        sql.NullString
		lastPayment sql.NullString
		createdAt   string
	)

	err := rows.Scan(
		&st.ID, &st.Name, &st.BoothNumber, &weeklyRent, &currency,
		&st.RentType, &rate, &st.Status, &lastPayment, &createdAt,
	)
	if err != nil {
		return st, fmt.Errorf("failed to scan stylist: %w", err)
	}

	st.WeeklyRent = generic.Money{Amount: generic.MustParseDecimal(weeklyRent), Currency: generic.Currency(currency)}
	if rate.Valid {
		d, err := decimal.NewFromString(rate.String)
		if err != nil {
			return st, fmt.Errorf("stylist %s percentage rate: %w", st.ID, err)
		}
		st.PercentageRate = &d
	}
	if lastPayment.Valid {
		d, err := generic.ParseDate(lastPayment.String)
		if err != nil {
			return st, fmt.Errorf("stylist %s last payment: %w", st.ID, err)
		}
		st.LastPayment = &d
	}
	st.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return st, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for demo reset).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	// Children first for the foreign key.
	for _, table := range []string{"transactions", "stylists"} {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

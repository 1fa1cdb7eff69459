/*
Package sqlite provides a SQLite-backed implementation of vacation.Ledger.

PURPOSE:
  Optional durable ledger. The default service runs on the in-memory ledger;
  this one is selected with storage.driver=sqlite. Using ":memory:" as the
  path gives the same SQL behavior without a file.

INTERFACES IMPLEMENTED:
  vacation.Ledger:   Balance and request history access
  vacation.TxLedger: Atomic balance write + history append
  vacation.Resetter: Drop all rows (tests, demo reset)

KEY TABLES:
  balances:          One row per employee, raw (unclamped) hours
  vacation_requests: Approved requests; seq preserves insertion order

CONCURRENCY:
  Uses sync.RWMutex around plain calls. WithTx holds the write lock for the
  whole SQL transaction, and the view it hands out talks to the *sql.Tx only.
  Per-employee serialization of read-check-write is the RequestService's job.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging). In-memory
  databases are pinned to a single connection, since every new connection
  to ":memory:" would see an empty database.

USAGE:
  store, err := sqlite.New("./data/vacation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := vacation.NewService(store)

SEE ALSO:
  - vacation/ledger.go: Interface definitions
  - store/memory/memory.go: Default in-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/vacation-engine/vacation"
)

// Store implements vacation.TxLedger using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time checks
var (
	_ vacation.TxLedger  = (*Store)(nil)
	_ vacation.Resetter  = (*Store)(nil)
	_ vacation.Populated = (*Store)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	if dbPath == ":memory:" {
		dsn = dbPath
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an already opened database and migrates it.
func NewWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS balances (
		employee_id TEXT PRIMARY KEY,
		hours INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Approved requests only; declines are never stored
	CREATE TABLE IF NOT EXISTS vacation_requests (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_days INTEGER NOT NULL,
		total_hours INTEGER NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vacation_requests_employee
		ON vacation_requests(employee_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER (vacation.Ledger interface)
// =============================================================================

// GetBalance returns the stored hours, 0 for unknown employees.
func (s *Store) GetBalance(ctx context.Context, employeeID vacation.EmployeeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBalance(ctx, s.db, employeeID)
}

// SetBalance upserts the employee's hours.
func (s *Store) SetBalance(ctx context.Context, employeeID vacation.EmployeeID, hours int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setBalance(ctx, s.db, employeeID, hours)
}

// AppendRequest inserts a request at the end of the employee's history.
func (s *Store) AppendRequest(ctx context.Context, employeeID vacation.EmployeeID, req vacation.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendRequest(ctx, s.db, employeeID, req)
}

// ListRequests returns the employee's history in insertion order.
func (s *Store) ListRequests(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db, employeeID)
}

// Reset clears all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"vacation_requests", "balances"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// HasState reports whether any balance or request row exists.
func (s *Store) HasState(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var populated bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM balances)
			OR EXISTS(SELECT 1 FROM vacation_requests)
	`).Scan(&populated)
	if err != nil {
		return false, fmt.Errorf("failed to inspect ledger: %w", err)
	}
	return populated, nil
}

func getBalance(ctx context.Context, q querier, employeeID vacation.EmployeeID) (int, error) {
	var hours int
	err := q.QueryRowContext(ctx,
		"SELECT hours FROM balances WHERE employee_id = ?",
		string(employeeID),
	).Scan(&hours)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return hours, nil
}

func setBalance(ctx context.Context, q querier, employeeID vacation.EmployeeID, hours int) error {
	query := `
		INSERT INTO balances (employee_id, hours, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			hours = excluded.hours,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		string(employeeID),
		hours,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}

func appendRequest(ctx context.Context, q querier, employeeID vacation.EmployeeID, req vacation.Request) error {
	query := `
		INSERT INTO vacation_requests
		(id, employee_id, start_date, end_date, total_days, total_hours, status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		req.ID,
		string(employeeID),
		req.StartDate,
		req.EndDate,
		req.TotalDays,
		req.TotalHours,
		string(req.Status),
		nullString(req.Reason),
		req.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("request %s: %w", req.ID, vacation.ErrDuplicateRequest)
		}
		return fmt.Errorf("failed to append request: %w", err)
	}
	return nil
}

func listRequests(ctx context.Context, q querier, employeeID vacation.EmployeeID) ([]vacation.Request, error) {
	query := `
		SELECT id, employee_id, start_date, end_date, total_days, total_hours, status, reason, created_at
		FROM vacation_requests
		WHERE employee_id = ?
		ORDER BY seq ASC
	`
	rows, err := q.QueryContext(ctx, query, string(employeeID))
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := []vacation.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(rows *sql.Rows) (vacation.Request, error) {
	var (
		req        vacation.Request
		employeeID string
		status     string
		reason     sql.NullString
		createdAt  string
	)

	err := rows.Scan(
		&req.ID, &employeeID, &req.StartDate, &req.EndDate,
		&req.TotalDays, &req.TotalHours, &status, &reason, &createdAt,
	)
	if err != nil {
		return req, fmt.Errorf("failed to scan request: %w", err)
	}

	req.EmployeeID = vacation.EmployeeID(employeeID)
	req.Status = vacation.Status(status)
	req.Reason = reason.String
	req.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return req, fmt.Errorf("failed to parse created_at of request %s: %w", req.ID, err)
	}
	return req, nil
}

// =============================================================================
// TRANSACTIONAL LEDGER (vacation.TxLedger interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(vacation.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetBalance(ctx context.Context, employeeID vacation.EmployeeID) (int, error) {
	return getBalance(ctx, ts.tx, employeeID)
}

func (ts *txStore) SetBalance(ctx context.Context, employeeID vacation.EmployeeID, hours int) error {
	return setBalance(ctx, ts.tx, employeeID, hours)
}

func (ts *txStore) AppendRequest(ctx context.Context, employeeID vacation.EmployeeID, req vacation.Request) error {
	return appendRequest(ctx, ts.tx, employeeID, req)
}

func (ts *txStore) ListRequests(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.Request, error) {
	return listRequests(ctx, ts.tx, employeeID)
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

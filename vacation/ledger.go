/*
ledger.go - Storage interface for balances and approved-request history

PURPOSE:
  The Ledger is a dumb associative store: employee -> balance hours and
  employee -> ordered request history. It holds no business rules and gives
  no atomicity across calls. Read-modify-write sequences are made safe by the
  RequestService, which serializes them per employee (see locks.go).

CONTRACT:
  - GetBalance returns 0 for unknown employees (no error).
  - SetBalance overwrites unconditionally.
  - AppendRequest keeps insertion order (creation order, not date order).
  - ListRequests returns a copy; an unknown employee yields an empty slice.
  - Errors are storage faults only.

IMPLEMENTATIONS:
  - store/memory: map-based, default
  - store/sqlite: SQLite-backed, optional; also implements TxLedger and
    Populated so a restart does not re-seed spent balances

SEE ALSO:
  - request.go: The only writer of balances besides seeding
*/
package vacation

import "context"

// Ledger stores balances and approved requests.
type Ledger interface {
	GetBalance(ctx context.Context, employeeID EmployeeID) (int, error)
	SetBalance(ctx context.Context, employeeID EmployeeID, hours int) error
	AppendRequest(ctx context.Context, employeeID EmployeeID, req Request) error
	ListRequests(ctx context.Context, employeeID EmployeeID) ([]Request, error)
}

// TxLedger is a Ledger that can group writes into one atomic unit.
// If fn returns an error, nothing written through the inner Ledger persists.
type TxLedger interface {
	Ledger
	WithTx(ctx context.Context, fn func(Ledger) error) error
}

// Populated is implemented by durable ledgers that may already hold state
// from an earlier run of the process.
type Populated interface {
	HasState(ctx context.Context) (bool, error)
}

// Resetter is implemented by ledgers that can drop all their state.
type Resetter interface {
	Reset(ctx context.Context) error
}

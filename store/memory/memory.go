// Package memory provides the in-memory vacation.Ledger used by default.
package memory

import (
	"context"
	"sync"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// MEMORY LEDGER - Map-backed, process lifetime only
// =============================================================================

// Memory stores balances and request histories in maps.
// Each call is safe on its own; sequences of calls are not atomic.
type Memory struct {
	mu       sync.RWMutex
	balances map[vacation.EmployeeID]int
	requests map[vacation.EmployeeID][]vacation.Request
}

// Compile-time checks
var (
	_ vacation.TxLedger = (*Memory)(nil)
	_ vacation.Resetter = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[vacation.EmployeeID]int),
		requests: make(map[vacation.EmployeeID][]vacation.Request),
	}
}

func (m *Memory) GetBalance(_ context.Context, employeeID vacation.EmployeeID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[employeeID], nil
}

func (m *Memory) SetBalance(_ context.Context, employeeID vacation.EmployeeID, hours int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[employeeID] = hours
	return nil
}

func (m *Memory) AppendRequest(_ context.Context, employeeID vacation.EmployeeID, req vacation.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[employeeID] = append(m.requests[employeeID], req)
	return nil
}

// ListRequests returns a copy of the history so callers cannot mutate it.
func (m *Memory) ListRequests(_ context.Context, employeeID vacation.EmployeeID) ([]vacation.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(employeeID), nil
}

func (m *Memory) listLocked(employeeID vacation.EmployeeID) []vacation.Request {
	result := make([]vacation.Request, len(m.requests[employeeID]))
	copy(result, m.requests[employeeID])
	return result
}

// Reset drops all balances and requests.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = make(map[vacation.EmployeeID]int)
	m.requests = make(map[vacation.EmployeeID][]vacation.Request)
	return nil
}

// =============================================================================
// TRANSACTIONS - Undo journal, rolled back when fn fails
// =============================================================================

// WithTx runs fn with exclusive access. Writes made through the view are
// undone if fn returns an error.
func (m *Memory) WithTx(ctx context.Context, fn func(vacation.Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := &txView{
		parent:   m,
		balances: make(map[vacation.EmployeeID]savedBalance),
		lengths:  make(map[vacation.EmployeeID]int),
	}
	if err := fn(view); err != nil {
		view.rollback()
		return err
	}
	return nil
}

type savedBalance struct {
	hours   int
	present bool
}

type txView struct {
	parent   *Memory
	balances map[vacation.EmployeeID]savedBalance
	lengths  map[vacation.EmployeeID]int
}

func (tv *txView) GetBalance(_ context.Context, employeeID vacation.EmployeeID) (int, error) {
	return tv.parent.balances[employeeID], nil
}

func (tv *txView) SetBalance(_ context.Context, employeeID vacation.EmployeeID, hours int) error {
	if _, seen := tv.balances[employeeID]; !seen {
		old, ok := tv.parent.balances[employeeID]
		tv.balances[employeeID] = savedBalance{hours: old, present: ok}
	}
	tv.parent.balances[employeeID] = hours
	return nil
}

func (tv *txView) AppendRequest(_ context.Context, employeeID vacation.EmployeeID, req vacation.Request) error {
	if _, seen := tv.lengths[employeeID]; !seen {
		tv.lengths[employeeID] = len(tv.parent.requests[employeeID])
	}
	tv.parent.requests[employeeID] = append(tv.parent.requests[employeeID], req)
	return nil
}

func (tv *txView) ListRequests(_ context.Context, employeeID vacation.EmployeeID) ([]vacation.Request, error) {
	return tv.parent.listLocked(employeeID), nil
}

func (tv *txView) rollback() {
	for id, saved := range tv.balances {
		if saved.present {
			tv.parent.balances[id] = saved.hours
		} else {
			delete(tv.parent.balances, id)
		}
	}
	for id, n := range tv.lengths {
		if n == 0 {
			delete(tv.parent.requests, id)
			continue
		}
		tv.parent.requests[id] = tv.parent.requests[id][:n]
	}
}

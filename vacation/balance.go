package vacation

import (
	"context"
	"fmt"
)

// =============================================================================
// BALANCE SERVICE - Bounded view over ledger balances
// =============================================================================

// BalanceService reads and seeds balances, clamping them to [0, MaxBalanceHours].
// Adjudication reads the raw ledger value instead; see RequestService.
type BalanceService struct {
	Ledger Ledger
	Locks  *KeyedMutex
}

// NewBalanceService creates a BalanceService. Pass the RequestService's locks
// so seeding cannot interleave with a commit for the same employee.
func NewBalanceService(ledger Ledger, locks *KeyedMutex) *BalanceService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &BalanceService{Ledger: ledger, Locks: locks}
}

// GetBalanceHours returns the employee's balance clamped to [0, 120].
func (bs *BalanceService) GetBalanceHours(ctx context.Context, employeeID EmployeeID) (int, error) {
	hours, err := bs.Ledger.GetBalance(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("get balance for %s: %w", employeeID, err)
	}
	return Clamp(hours), nil
}

// SeedBalance overwrites the balance with hours clamped to [0, 120].
// This is the only way a balance goes up.
func (bs *BalanceService) SeedBalance(ctx context.Context, employeeID EmployeeID, hours int) error {
	unlock := bs.Locks.Lock(employeeID)
	defer unlock()

	if err := bs.Ledger.SetBalance(ctx, employeeID, Clamp(hours)); err != nil {
		return fmt.Errorf("seed balance for %s: %w", employeeID, err)
	}
	return nil
}

// Clamp bounds hours into [0, MaxBalanceHours].
func Clamp(hours int) int {
	return min(max(hours, 0), MaxBalanceHours)
}

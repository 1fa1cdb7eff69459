package vacation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// SERVICE - The three operations every transport calls
// =============================================================================

// Service bundles balance reads, request adjudication and history queries over
// one explicitly owned Ledger. Transports hold a *Service for the lifetime of
// the process; there is no package-level state.
type Service struct {
	Balances *BalanceService
	Requests *RequestService
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for decision events.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) { s.Requests.Logger = logger }
}

// WithIDGenerator replaces the uuid request id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.Requests.NewID = newID }
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.Requests.Now = now }
}

// NewService wires balance and request services over ledger with shared
// per-employee locks.
func NewService(ledger Ledger, options ...Option) *Service {
	locks := NewKeyedMutex()
	s := &Service{
		Balances: NewBalanceService(ledger, locks),
		Requests: NewRequestService(ledger, locks, nil),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// GetBalanceHours returns the clamped balance of employeeID.
func (s *Service) GetBalanceHours(ctx context.Context, employeeID EmployeeID) (int, error) {
	return s.Balances.GetBalanceHours(ctx, employeeID)
}

// CreateRequest adjudicates a request. See RequestService.CreateRequest.
func (s *Service) CreateRequest(ctx context.Context, employeeID EmployeeID, startISO, endISO string) (Request, error) {
	return s.Requests.CreateRequest(ctx, employeeID, startISO, endISO)
}

// ListRequests returns approved requests in creation order.
func (s *Service) ListRequests(ctx context.Context, employeeID EmployeeID) ([]Request, error) {
	return s.Requests.ListRequests(ctx, employeeID)
}

// SeedBalance sets a clamped balance. Bootstrap and test use only.
func (s *Service) SeedBalance(ctx context.Context, employeeID EmployeeID, hours int) error {
	return s.Balances.SeedBalance(ctx, employeeID, hours)
}

// SeedAll seeds every entry of balances.
func (s *Service) SeedAll(ctx context.Context, balances map[string]int) error {
	for id, hours := range balances {
		if err := s.SeedBalance(ctx, EmployeeID(id), hours); err != nil {
			return err
		}
	}
	return nil
}

// SeedFresh seeds balances only when the ledger holds no earlier state and
// reports whether it did. Ledgers that do not implement Populated are always
// seeded.
func (s *Service) SeedFresh(ctx context.Context, balances map[string]int) (bool, error) {
	if p, ok := s.Requests.Ledger.(Populated); ok {
		populated, err := p.HasState(ctx)
		if err != nil {
			return false, fmt.Errorf("inspect ledger: %w", err)
		}
		if populated {
			return false, nil
		}
	}
	if err := s.SeedAll(ctx, balances); err != nil {
		return false, err
	}
	return true, nil
}

// Reset drops all ledger state. It waits for every in-flight adjudication and
// holds off new ones until the ledger is empty.
func (s *Service) Reset(ctx context.Context) error {
	resetter, ok := s.Requests.Ledger.(Resetter)
	if !ok {
		return ErrResetUnsupported
	}

	unlock := s.Requests.Locks.LockAll()
	defer unlock()
	return resetter.Reset(ctx)
}

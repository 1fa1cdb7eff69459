package vacation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// REQUEST SERVICE - Adjudicates vacation requests
// =============================================================================

// RequestService turns (employee, date range) into an Approved or Declined
// request and commits approvals to the ledger.
//
// All steps for one employee run under that employee's lock, so two concurrent
// requests can never both pass the balance check against the same balance.
// Requests for different employees do not contend.
type RequestService struct {
	Ledger Ledger
	Locks  *KeyedMutex
	Logger logrus.FieldLogger

	// NewID and Now are replaceable for tests.
	NewID func() string
	Now   func() time.Time
}

// NewRequestService creates a RequestService with uuid ids and the wall clock.
func NewRequestService(ledger Ledger, locks *KeyedMutex, logger logrus.FieldLogger) *RequestService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RequestService{
		Ledger: ledger,
		Locks:  locks,
		Logger: logger,
		NewID:  uuid.NewString,
		Now:    time.Now,
	}
}

// =============================================================================
// CREATE REQUEST - The adjudication algorithm
// =============================================================================

// CreateRequest decides a request for [startISO, endISO].
//
// Business outcomes are always returned as a fully populated Request, never as
// an error: malformed or reversed dates, weekend-only ranges, overlaps and
// short balances all produce a Declined request with a reason. The error
// return is reserved for ledger faults.
//
// Only approvals touch the ledger: the balance is decremented and the request
// appended to the employee's history.
func (rs *RequestService) CreateRequest(ctx context.Context, employeeID EmployeeID, startISO, endISO string) (Request, error) {
	req := Request{
		ID:         rs.NewID(),
		EmployeeID: employeeID,
		StartDate:  startISO,
		EndDate:    endISO,
		CreatedAt:  rs.Now().UTC(),
	}

	// 1. Date validity
	days, err := CountWeekdaysInclusive(startISO, endISO)
	if err != nil {
		return rs.decline(req, err), nil
	}

	// 2. Non-empty range
	if days == 0 {
		return rs.decline(req, ErrEmptyRange), nil
	}
	req.TotalDays = days
	req.TotalHours = HoursFor(days)

	period, err := ParsePeriod(startISO, endISO)
	if err != nil {
		return rs.decline(req, err), nil
	}

	unlock := rs.Locks.Lock(employeeID)
	defer unlock()

	// 3. Overlap with approved history
	existing, err := rs.Ledger.ListRequests(ctx, employeeID)
	if err != nil {
		return Request{}, fmt.Errorf("list requests for %s: %w", employeeID, err)
	}
	for _, prior := range existing {
		priorPeriod, err := prior.Period()
		if err != nil {
			// Stored requests were approved, so their dates parsed once already.
			return Request{}, fmt.Errorf("stored request %s has invalid dates: %w", prior.ID, err)
		}
		if period.Overlaps(priorPeriod) {
			return rs.decline(req, ErrOverlappingRequest), nil
		}
	}

	// 4. Balance sufficiency (raw ledger value, not clamped)
	balance, err := rs.Ledger.GetBalance(ctx, employeeID)
	if err != nil {
		return Request{}, fmt.Errorf("get balance for %s: %w", employeeID, err)
	}
	if req.TotalHours > balance {
		return rs.decline(req, ErrInsufficientBalance), nil
	}

	// 5. Commit
	req.Status = StatusApproved
	newBalance := balance - req.TotalHours
	if err := rs.commit(ctx, req, newBalance); err != nil {
		return Request{}, err
	}

	rs.Logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"request_id":  req.ID,
		"hours":       req.TotalHours,
		"new_balance": newBalance,
	}).Info("vacation_request_approved")

	return req, nil
}

// commit writes the new balance and appends the approved request, atomically
// when the ledger supports transactions.
func (rs *RequestService) commit(ctx context.Context, req Request, newBalance int) error {
	write := func(l Ledger) error {
		if err := l.SetBalance(ctx, req.EmployeeID, newBalance); err != nil {
			return fmt.Errorf("set balance for %s: %w", req.EmployeeID, err)
		}
		if err := l.AppendRequest(ctx, req.EmployeeID, req); err != nil {
			return fmt.Errorf("append request %s: %w", req.ID, err)
		}
		return nil
	}

	if txl, ok := rs.Ledger.(TxLedger); ok {
		return txl.WithTx(ctx, write)
	}
	return write(rs.Ledger)
}

func (rs *RequestService) decline(req Request, reason error) Request {
	req.Status = StatusDeclined
	req.Reason = reason.Error()

	rs.Logger.WithFields(logrus.Fields{
		"employee_id": req.EmployeeID,
		"request_id":  req.ID,
		"start":       req.StartDate,
		"end":         req.EndDate,
		"reason":      req.Reason,
	}).Info("vacation_request_declined")

	return req
}

// =============================================================================
// QUERIES
// =============================================================================

// ListRequests returns the employee's approved requests in creation order.
func (rs *RequestService) ListRequests(ctx context.Context, employeeID EmployeeID) ([]Request, error) {
	reqs, err := rs.Ledger.ListRequests(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list requests for %s: %w", employeeID, err)
	}
	return reqs, nil
}

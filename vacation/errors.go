/*
errors.go - Decline reasons and storage errors

PURPOSE:
  Every business rule violation is a sentinel error whose message is the
  human-readable decline reason. The adjudicator never returns these to its
  caller: it turns them into a Declined Request carrying err.Error() as the
  reason. Tool-calling clients read the reason as text; Go callers can map a
  declined request back with Request.DeclineError() and use errors.Is.

  Storage faults (a broken SQLite file, a closed database) are the only errors
  that escape RequestService.CreateRequest.

SEE ALSO:
  - request.go: Converts these errors into decisions
  - calendar.go: Produces ErrInvalidDate / ErrInvalidDateRange
*/
package vacation

import "errors"

// =============================================================================
// DECLINE REASONS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date is not ISO YYYY-MM-DD.
	// The decline reason carries the offending value after this prefix.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidDateRange is returned when the end date precedes the start date.
	ErrInvalidDateRange = errors.New("end date before start date")

	// ErrEmptyRange is returned when a range contains only weekend days.
	ErrEmptyRange = errors.New("No weekdays in requested range")

	// ErrOverlappingRequest is returned when a range intersects an approved request.
	ErrOverlappingRequest = errors.New("Overlapping request exists")

	// ErrInsufficientBalance is returned when the request costs more hours than available.
	ErrInsufficientBalance = errors.New("Insufficient balance")
)

// =============================================================================
// STORAGE ERRORS
// =============================================================================

var (
	// ErrDuplicateRequest is returned by a ledger asked to store a request id twice.
	ErrDuplicateRequest = errors.New("duplicate request id")

	// ErrResetUnsupported is returned when the ledger cannot drop its state.
	ErrResetUnsupported = errors.New("ledger does not support reset")
)

var declineReasons = []error{
	ErrInvalidDateRange,
	ErrEmptyRange,
	ErrOverlappingRequest,
	ErrInsufficientBalance,
}

// DeclineError maps a declined request back to its sentinel error.
// Returns nil for approved requests.
func (r Request) DeclineError() error {
	if r.Status != StatusDeclined {
		return nil
	}
	for _, err := range declineReasons {
		if r.Reason == err.Error() {
			return err
		}
	}
	// Parse failures carry the value, so they only share the prefix.
	return &declineError{reason: r.Reason, base: ErrInvalidDate}
}

type declineError struct {
	reason string
	base   error
}

func (e *declineError) Error() string { return e.reason }
func (e *declineError) Unwrap() error { return e.base }

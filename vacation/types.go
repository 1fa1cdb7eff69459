// Package vacation implements the vacation balance and request adjudication engine.
// It owns the business rules; transports (REST, MCP) only translate in and out of it.
package vacation

import (
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// HoursPerDay is the number of hours credited per requested weekday.
	HoursPerDay = 8

	// MaxBalanceHours is the upper display/seed bound of a balance.
	MaxBalanceHours = 120
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// EmployeeID is an opaque employee key. Unknown ids behave as employees with
// a zero balance and no history.
type EmployeeID string

// =============================================================================
// REQUEST
// =============================================================================

// Status is the terminal decision of a request.
type Status string

const (
	// StatusPending is part of the wire schema but is never produced:
	// adjudication always completes synchronously.
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusDeclined Status = "Declined"
)

// Request is an immutable vacation request record.
//
// StartDate and EndDate keep the caller's strings so a declined request with a
// malformed date still echoes what was asked for.
type Request struct {
	ID         string
	EmployeeID EmployeeID
	StartDate  string
	EndDate    string
	TotalDays  int
	TotalHours int
	Status     Status
	Reason     string // empty iff Approved
	CreatedAt  time.Time
}

// Approved reports whether the request was approved.
func (r Request) Approved() bool { return r.Status == StatusApproved }

// Period returns the parsed inclusive date range of the request.
func (r Request) Period() (Period, error) {
	return ParsePeriod(r.StartDate, r.EndDate)
}

// HoursFor converts a weekday count into hours.
func HoursFor(days int) int { return days * HoursPerDay }

package vacation

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Naive ISO calendar date (no timezone, no time of day)
// =============================================================================

const isoDate = "2006-01-02"

// Date is a calendar date normalized to UTC midnight.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
	}
	return Date{t: t}, nil
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether both dates are the same calendar day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// IsWeekend reports whether d is a Saturday or a Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string { return d.t.Format(isoDate) }

// Time returns d as a time.Time at UTC midnight.
func (d Date) Time() time.Time { return d.t }

const secondsPerDay = 24 * 60 * 60

// daysBetween returns the number of calendar days from a to b (b - a).
// Both dates sit on UTC midnight, so Unix seconds divide evenly. time.Duration
// would overflow past roughly 292 years.
func daysBetween(a, b Date) int {
	return int((b.t.Unix() - a.t.Unix()) / secondsPerDay)
}

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive range [Start, End].
type Period struct {
	Start Date
	End   Date
}

// ParsePeriod parses both bounds. It does not check ordering.
func ParsePeriod(startISO, endISO string) (Period, error) {
	start, err := ParseDate(startISO)
	if err != nil {
		return Period{}, err
	}
	end, err := ParseDate(endISO)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: start, End: end}, nil
}

// Overlaps reports whether two inclusive ranges share at least one date.
func (p Period) Overlaps(other Period) bool {
	return !(p.End.Before(other.Start) || other.End.Before(p.Start))
}

// Weekdays counts Monday-Friday dates in the range. Returns 0 when End < Start.
func (p Period) Weekdays() int {
	if p.End.Before(p.Start) {
		return 0
	}
	total := daysBetween(p.Start, p.End) + 1
	weeks, rest := total/7, total%7

	// Every full week has exactly five weekdays; walk the leftover days.
	days := weeks * 5
	current := p.Start.AddDays(weeks * 7)
	for i := 0; i < rest; i++ {
		if !current.IsWeekend() {
			days++
		}
		current = current.AddDays(1)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// WEEKDAY COUNTING
// =============================================================================

// CountWeekdaysInclusive returns the number of weekdays in [start, end].
// It fails with ErrInvalidDate for malformed input and ErrInvalidDateRange
// when end precedes start. No holiday calendar is applied.
func CountWeekdaysInclusive(startISO, endISO string) (int, error) {
	period, err := ParsePeriod(startISO, endISO)
	if err != nil {
		return 0, err
	}
	if period.End.Before(period.Start) {
		return 0, ErrInvalidDateRange
	}
	return period.Weekdays(), nil
}

package core

import (
	"fmt"
	"time"
)

// Period identifies one calendar month, the unit every bill instance is
// keyed on.
type Period struct {
	Year  int
	Month int // 1-12
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// NewPeriod builds a period from year and month without validating ranges.
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

func (p Period) Validate() error {
	if p.Year < 1 || p.Year > 9999 {
		return ErrInvalidYear
	}
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// index is the absolute month count; the arithmetic base for period math.
func (p Period) index() int {
	return p.Year*12 + p.Month - 1
}

// Compare returns -1, 0 or 1 as p is before, equal to or after q.
func (p Period) Compare(q Period) int {
	switch {
	case p.index() < q.index():
		return -1
	case p.index() > q.index():
		return 1
	default:
		return 0
	}
}

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool { return p.Compare(q) < 0 }

// AddMonths returns the period n months after p (n may be negative).
func (p Period) AddMonths(n int) Period {
	idx := p.index() + n
	return Period{Year: idx / 12, Month: idx%12 + 1}
}

// DiffMonths returns the number of whole months from a to b.
// DiffMonths(Jan 2024, Mar 2024) == 2.
func DiffMonths(a, b Period) int {
	return b.index() - a.index()
}

// LastDay returns the last day of the month (handles leap years).
func (p Period) LastDay() int {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// DueDateFor computes the concrete due date for a bill with the given
// recurrence day in period p. A nil recurrence day defaults to the 1st.
// Days past the end of the month clamp to the last day, so day 31 in a
// non-leap February falls on the 28th.
func DueDateFor(recurrenceDay *int, p Period) Date {
	day := 1
	if recurrenceDay != nil {
		day = *recurrenceDay
	}
	if last := p.LastDay(); day > last {
		day = last
	}
	return NewDate(p.Year, p.Month, day)
}

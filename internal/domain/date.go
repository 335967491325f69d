package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-day format used for all table keys.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time component.
// The zero value is not a valid date; use ParseDate or NewDate.
type Date struct {
	t time.Time // midnight UTC
}

// NewDate builds a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustDate parses an ISO date string and panics on failure.
// Intended for fixtures and tests only.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateFromTime truncates t to its UTC calendar day.
func DateFromTime(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d.t.IsZero() }

// String returns the ISO representation (YYYY-MM-DD).
func (d Date) String() string { return d.t.Format(DateLayout) }

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time { return d.t }

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// Compare returns -1, 0 or +1 ordering d against other.
func (d Date) Compare(other Date) int { return d.t.Compare(other.t) }

// AddDays returns the date n calendar days after d (n may be negative).
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysSince returns the number of calendar days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.t.Sub(other.t) / (24 * time.Hour))
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// IsBusinessDay reports whether d falls Monday through Friday.
// Exchange holidays are not modeled; sources simply do not publish on them
// and the gap is handled by imputation like any other non-trading day.
func (d Date) IsBusinessDay() bool {
	wd := d.t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// DateRange returns every calendar day from start to end inclusive.
// Returns nil if end is before start.
func DateRange(start, end Date) []Date {
	if end.Before(start) {
		return nil
	}
	n := end.DaysSince(start) + 1
	days := make([]Date, 0, n)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

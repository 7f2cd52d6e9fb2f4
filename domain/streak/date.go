// Package streak holds the journaling day ledger and the streak state
// machine. Everything here is pure: persistence and event plumbing live
// in the infrastructure layer.
package streak

import (
	"fmt"
	"time"
)

// DateLayout is the canonical wire/storage form of a journaling day.
const DateLayout = "2006-01-02"

// Date is a single UTC calendar day. The zero value is not a valid date;
// construct one through ParseDate, DateOf or Today.
type Date struct {
	t time.Time
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// String renders the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// IsZero reports whether the date is the uninitialized zero value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DiffDays returns the number of whole days from other to d.
// Positive when d is later than other.
func (d Date) DiffDays(other Date) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// Equal reports whether both dates name the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// Weekday returns the day of week for the date.
func (d Date) Weekday() time.Weekday {
	return d.t.Weekday()
}

// Time exposes the midnight-UTC instant backing the date.
func (d Date) Time() time.Time {
	return d.t
}

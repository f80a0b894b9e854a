// Package dates provides calendar-date arithmetic for checklist scheduling.
// All values are plain calendar dates (year, month, day) anchored at UTC
// midnight; time-of-day never enters the computation, so results cannot drift
// across time zones or DST boundaries.
package dates

import (
	"fmt"
	"time"
)

// Unit is a calendar interval unit.
type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

// ValidUnit reports whether s names a supported interval unit.
func ValidUnit(s string) bool {
	switch Unit(s) {
	case UnitDay, UnitWeek, UnitMonth:
		return true
	}
	return false
}

// Date is a calendar date with no time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date, normalizing out-of-range components the way time.Date does.
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Parse parses an ISO calendar date (YYYY-MM-DD).
func Parse(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.time().Format("2006-01-02")
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is before other.
func (d Date) Before(other Date) bool {
	return d.time().Before(other.time())
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	t := d.time().AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// AddInterval returns d shifted by amount units. Month addition clamps to the
// last valid day of the target month: Jan 31 + 1 month is Feb 28 (or Feb 29 in
// a leap year), never an overflowed March date. An unknown unit is a
// programming error and panics.
func AddInterval(d Date, amount int, unit Unit) Date {
	switch unit {
	case UnitDay:
		return d.AddDays(amount)
	case UnitWeek:
		return d.AddDays(amount * 7)
	case UnitMonth:
		return addMonthsClamped(d, amount)
	default:
		panic(fmt.Sprintf("dates: unknown interval unit %q", unit))
	}
}

// DaysBetween returns the number of calendar days from a to b (negative when
// b precedes a).
func DaysBetween(a, b Date) int {
	return int(b.time().Sub(a.time()).Hours() / 24)
}

// addMonthsClamped adds whole calendar months, clamping the day-of-month when
// the target month is shorter than the source day.
func addMonthsClamped(d Date, months int) Date {
	// Compute the target month from the first of the month so AddDate cannot
	// overflow into the following month.
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	day := d.Day
	if last := lastDayOfMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

package models

import (
	"errors"
	"fmt"
	"time"
)

// MonthLayout is the textual form of a Month ("YYYY-MM").
const MonthLayout = "2006-01"

var (
	// ErrInvalidMonth is returned when a month string is not "YYYY-MM".
	ErrInvalidMonth = errors.New("invalid month")
	// ErrInvalidMonthRange is returned when a range starts after it ends.
	ErrInvalidMonthRange = errors.New("invalid month range: start is after end")
)

// Month is a calendar month. The zero value is not a valid month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM" into a Month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MustParseMonth is ParseMonth for literals; it panics on error.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MonthOf returns the calendar month t falls in (UTC).
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Start returns the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts m by n calendar months (n may be negative).
func (m Month) AddMonths(n int) Month {
	return MonthOf(m.Start().AddDate(0, n, 0))
}

// index is a monotonic ordinal used for comparisons.
func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	return m.index() < o.index()
}

// After reports whether m is strictly later than o.
func (m Month) After(o Month) bool {
	return m.index() > o.index()
}

// Within reports whether m lies in [start, end] inclusive.
func (m Month) Within(start, end Month) bool {
	return !m.Before(start) && !m.After(end)
}

// MonthsBetween returns every month from start to end inclusive.
func MonthsBetween(start, end Month) ([]Month, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidMonthRange, start, end)
	}
	months := make([]Month, 0, end.index()-start.index()+1)
	for cur := start; !cur.After(end); cur = cur.AddMonths(1) {
		months = append(months, cur)
	}
	return months, nil
}

// ParseMonths parses a list of "YYYY-MM" strings, preserving order.
func ParseMonths(values []string) ([]Month, error) {
	months := make([]Month, 0, len(values))
	for _, v := range values {
		m, err := ParseMonth(v)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, nil
}

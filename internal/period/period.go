// Package period implements the calendar arithmetic shared by the savings,
// dashboard and insight computations. Months are always normalized to their
// first day at midnight UTC.
//
// Inputs are calendar components that the caller has already validated; a
// month outside 1-12 or a non-positive year is a programming error and panics.
package period

import (
	"fmt"
	"time"
)

func mustValid(year, month int) {
	if year < 1 || month < 1 || month > 12 {
		panic(fmt.Sprintf("period: invalid year/month %d-%02d", year, month))
	}
}

// MonthStart returns day 1 of (year, month).
func MonthStart(year, month int) time.Time {
	mustValid(year, month)
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns [start, end) where end is day 1 of the following month.
func MonthRange(year, month int) (start, end time.Time) {
	start = MonthStart(year, month)
	if month == 12 {
		return start, MonthStart(year+1, 1)
	}
	return start, MonthStart(year, month+1)
}

// PreviousMonth returns the month before (year, month), wrapping January to
// December of the previous year.
func PreviousMonth(year, month int) (int, int) {
	mustValid(year, month)
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// LastDayOfMonth returns the number of days in (year, month), leap years included.
func LastDayOfMonth(year, month int) int {
	mustValid(year, month)
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns min(day, LastDayOfMonth(year, month)).
func ClampDay(year, month, day int) int {
	if last := LastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}

// Of returns the calendar year and month of t.
func Of(t time.Time) (int, int) {
	return t.Year(), int(t.Month())
}

// Valid reports whether (year, month) may be passed to this package.
func Valid(year, month int) bool {
	return year >= 1 && month >= 1 && month <= 12
}

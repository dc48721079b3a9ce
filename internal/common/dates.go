package common

import "time"

// DateLayout is the canonical on-disk and CLI date format.
const DateLayout = "2006-01-02"

// DayOf returns the calendar day of t (in t's own location) as UTC midnight,
// so that day arithmetic is free of DST and zone offsets.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b. It is negative
// when b falls on an earlier day than a.
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)).Hours() / 24)
}

// AddDays shifts the calendar day of t by n days.
func AddDays(t time.Time, n int) time.Time {
	return DayOf(t).AddDate(0, 0, n)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// Package schedule implements the scheduling core for the dispatch API:
// local calendar-date parsing, wall-clock time arithmetic, working-hours
// slot generation, booking overlap detection, occupancy indexing and
// calendar grid construction.
//
// Every function here is pure: reference dates are parameters, inputs are
// never mutated, and no ambient clock or timezone database is consulted
// beyond interpreting dates in the local calendar. That makes the package
// safe to call from any goroutine without synchronization.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Static errors for date and clock parsing.
var (
	// ErrNoDate is returned when the input date string is empty.
	ErrNoDate = errors.New("schedule: empty date")
	// ErrBadDate is returned when the input does not contain a YYYY-MM-DD date.
	ErrBadDate = errors.New("schedule: malformed date")
	// ErrBadClock is returned when the input is not a valid "HH:MM" time.
	ErrBadClock = errors.New("schedule: malformed clock time")
)

// ParseLocalDate parses the date portion of an ISO-8601 string into a local
// calendar date. Any time-of-day or timezone suffix is discarded before
// parsing, so "2024-03-10T23:00:00Z" always lands on 2024-03-10 no matter
// what the host timezone is. Going through time.Parse on the full string
// would convert the instant into local time first and can shift the
// calendar day by one.
func ParseLocalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrNoDate
	}

	datePart, _, _ := strings.Cut(s, "T")
	parts := strings.Split(datePart, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), nil
}

// DateKey returns the canonical zero-padded "YYYY-MM-DD" key for a date.
// Two dates fall on the same calendar day iff their keys are equal.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDay reports whether two ISO date strings refer to the same local
// calendar day. Unparseable input never matches anything.
func SameDay(a, b string) bool {
	da, err := ParseLocalDate(a)
	if err != nil {
		return false
	}
	db, err := ParseLocalDate(b)
	if err != nil {
		return false
	}
	return DateKey(da) == DateKey(db)
}

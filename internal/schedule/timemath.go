package schedule

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// minutesPerDay is the size of the wall-clock ring all time arithmetic
// wraps around.
const minutesPerDay = 24 * 60

// TimeToMinutes converts an "HH:MM" clock time to minutes since midnight,
// in [0, 1440). Malformed input fails fast with ErrBadClock; callers that
// want a fallback (treat missing time as unscheduled, say) decide that
// policy themselves rather than receiving a silent zero.
func TimeToMinutes(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}

	return hour*60 + minute, nil
}

// MinutesToTime converts minutes since midnight back to "HH:MM". Input is
// normalized modulo 1440 with negative values wrapping forward, so
// arithmetic that crosses midnight stays on the 24-hour clock.
func MinutesToTime(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddHours adds a (possibly fractional or negative) number of hours to an
// "HH:MM" time, wrapping around midnight. This is how a job's end time is
// derived from its start time and estimated duration.
func AddHours(clock string, hours float64) (string, error) {
	start, err := TimeToMinutes(clock)
	if err != nil {
		return "", err
	}
	return MinutesToTime(start + int(math.Round(hours*60))), nil
}

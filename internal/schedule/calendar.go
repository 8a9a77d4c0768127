package schedule

import "time"

// ViewMode selects the calendar layout.
type ViewMode string

const (
	// ViewDay renders a single day.
	ViewDay ViewMode = "day"
	// ViewWeek renders Monday through Sunday of the reference week.
	ViewWeek ViewMode = "week"
	// ViewMonth renders a fixed 5-week grid covering the reference month.
	ViewMonth ViewMode = "month"
)

// IsValid returns true if the view mode is one of day, week or month.
func (m ViewMode) IsValid() bool {
	return m == ViewDay || m == ViewWeek || m == ViewMonth
}

// BuildDays returns the ordered day cells of a calendar view. It never
// fails: any reference date and view mode produce a well-defined sequence,
// and an unknown mode falls back to the single-day view.
//
// Weeks start on Monday. The month view is a fixed 35-day grid starting at
// the Monday on or before the 1st; months whose trailing days would need a
// sixth row get visually truncated. That matches the shipped calendar and
// stays until product says otherwise.
func BuildDays(ref time.Time, mode ViewMode) []time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	switch mode {
	case ViewWeek:
		return consecutiveDays(mondayOf(day), 7)
	case ViewMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return consecutiveDays(mondayOf(first), 35)
	default:
		return []time.Time{day}
	}
}

// mondayOf returns the Monday on or before the given day. time.Weekday
// numbers Sunday as 0, so Sunday shifts back six days rather than -(-1).
func mondayOf(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 {
		return day.AddDate(0, 0, -6)
	}
	return day.AddDate(0, 0, -(wd - 1))
}

func consecutiveDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

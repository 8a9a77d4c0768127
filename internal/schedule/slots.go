package schedule

import (
	"fmt"
	"time"
)

// SlotMinutes is the fixed size of a calendar slot.
const SlotMinutes = 30

// WorkingHours is the daily window slots are generated for.
type WorkingHours struct {
	// Start is the inclusive "HH:MM" start of the working day.
	Start string
	// End is the exclusive "HH:MM" end of the working day.
	End string
}

// Slot is one 30-minute calendar cell on a given day.
type Slot struct {
	// ID is a stable identifier derived from the date and the slot time.
	ID string
	// Time is the "HH:MM" label of the slot start.
	Time string
	// DateKey is the "YYYY-MM-DD" key of the owning day.
	DateKey string
}

// GenerateSlots produces the 30-minute slots for one day's working-hours
// window, from Start inclusive to End exclusive. A window whose end does
// not lie after its start yields no slots; that is a valid outcome, not an
// error — the UI keeps the window sane, this function just reflects it.
func GenerateSlots(date time.Time, wh WorkingHours) ([]Slot, error) {
	startMin, err := TimeToMinutes(wh.Start)
	if err != nil {
		return nil, fmt.Errorf("working hours start: %w", err)
	}
	endMin, err := TimeToMinutes(wh.End)
	if err != nil {
		return nil, fmt.Errorf("working hours end: %w", err)
	}
	if endMin <= startMin {
		return nil, nil
	}

	key := DateKey(date)
	slots := make([]Slot, 0, (endMin-startMin)/SlotMinutes)
	for m := startMin; m < endMin; m += SlotMinutes {
		slots = append(slots, Slot{
			ID:      fmt.Sprintf("%s-%02d%02d", key, m/60, m%60),
			Time:    MinutesToTime(m),
			DateKey: key,
		})
	}
	return slots, nil
}

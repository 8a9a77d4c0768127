package schedule

import (
	"math"
	"sort"
	"time"
)

// defaultDisplayHours is assumed for jobs without a duration estimate when
// rendering occupancy. This deliberately differs from CheckOverlap, which
// skips such jobs instead: the calendar should show something for every
// scheduled job, but conflict detection must not guess.
const defaultDisplayHours = 1.0

// Occupied is one booked interval on a day, ready for calendar rendering.
type Occupied struct {
	// Start and End are "HH:MM" bounds of the interval.
	Start string
	End   string
	// JobID identifies the occupying job.
	JobID string
	// ClientLabel is the client name shown in the cell.
	ClientLabel string
	// Duration is the interval length in hours.
	Duration float64
	// Priority is the job's priority label.
	Priority string
}

// Segment is one 30-minute display cell of a job's interval.
type Segment struct {
	Start string
	End   string
}

// OccupiedSlots returns the booked intervals on the given day, sorted by
// start time. Jobs need both a service date and a start time to occupy the
// grid. When workerID is non-empty, only that worker's jobs are included.
func OccupiedSlots(date time.Time, jobs []Job, workerID string) []Occupied {
	key := DateKey(date)

	type entry struct {
		occ      Occupied
		startMin int
	}
	var entries []entry

	for _, j := range jobs {
		if !j.Scheduled() {
			continue
		}
		jobDate, err := ParseLocalDate(j.ServiceDate)
		if err != nil || DateKey(jobDate) != key {
			continue
		}
		if workerID != "" && j.AssignedTo != workerID {
			continue
		}
		startMin, err := TimeToMinutes(j.ScheduledTime)
		if err != nil {
			continue
		}

		hours := defaultDisplayHours
		if j.EstimatedDuration != nil {
			hours = *j.EstimatedDuration
		}
		end, err := AddHours(j.ScheduledTime, hours)
		if err != nil {
			continue
		}

		entries = append(entries, entry{
			occ: Occupied{
				Start:       j.ScheduledTime,
				End:         end,
				JobID:       j.ID,
				ClientLabel: j.ClientName,
				Duration:    hours,
				Priority:    j.Priority,
			},
			startMin: startMin,
		})
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].startMin < entries[b].startMin
	})

	out := make([]Occupied, len(entries))
	for i, e := range entries {
		out[i] = e.occ
	}
	return out
}

// SegmentsFor breaks one job's interval into consecutive 30-minute display
// segments so it can span multiple half-hour cells; the final segment is
// clipped to the exact end time. A job with a zero, negative or non-finite
// duration still yields a single 30-minute segment — every scheduled job
// gets at least one visible cell.
func SegmentsFor(j Job) []Segment {
	start, err := TimeToMinutes(j.ScheduledTime)
	if err != nil {
		return nil
	}

	hours := defaultDisplayHours
	if j.EstimatedDuration != nil {
		hours = *j.EstimatedDuration
	}
	total := int(math.Round(hours * 60))
	if math.IsNaN(hours) || math.IsInf(hours, 0) || total < SlotMinutes {
		total = SlotMinutes
	}

	var segs []Segment
	for off := 0; off < total; off += SlotMinutes {
		length := SlotMinutes
		if off+length > total {
			length = total - off
		}
		segs = append(segs, Segment{
			Start: MinutesToTime(start + off),
			End:   MinutesToTime(start + off + length),
		})
	}
	return segs
}

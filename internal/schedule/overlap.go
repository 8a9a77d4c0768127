package schedule

import "math"

// Job is the read-only snapshot of a dispatch job that the scheduling core
// operates on. The core never owns or mutates jobs; callers pass slices of
// these per call.
type Job struct {
	// ID is the job's unique identifier.
	ID string
	// ServiceDate is the ISO date(-time) string of the visit, or "" when
	// the job is unscheduled.
	ServiceDate string
	// ScheduledTime is the "HH:MM" start time, or "" when unset.
	ScheduledTime string
	// EstimatedDuration is the expected length in hours (fractions allowed).
	// nil means no estimate was given; the zero value 0.0 is a real, distinct
	// estimate, which is why this is a pointer.
	EstimatedDuration *float64
	// AssignedTo is the worker name the job is assigned to, or "".
	AssignedTo string
	// Status is the job's lifecycle status label.
	Status string
	// ClientName is a display-only label.
	ClientName string
	// Priority is a display-only label.
	Priority string
}

// Scheduled reports whether the job has both a service date and a start
// time. A date alone does not place a job on the grid.
func (j Job) Scheduled() bool {
	return j.ServiceDate != "" && j.ScheduledTime != ""
}

// Candidate is a prospective booking to test for conflicts: the values a
// job form holds before saving.
type Candidate struct {
	// Date is the ISO service date.
	Date string
	// StartTime is the "HH:MM" start.
	StartTime string
	// DurationHours is the booking length in hours. Zero or negative means
	// the candidate has no evaluable interval.
	DurationHours float64
	// AssignedTo optionally names the worker the booking is for.
	AssignedTo string
}

// Result is the outcome of an overlap check.
type Result struct {
	// HasOverlap is true when at least one existing job conflicts.
	HasOverlap bool
	// Overlapping lists every conflicting job in input order. Callers
	// typically surface the first in a warning message.
	Overlapping []Job
}

// CheckOverlap reports which existing jobs conflict with a candidate
// booking. excludeID names a job to ignore, so that editing a job never
// conflicts with itself.
//
// A candidate missing its date, start time or a positive duration has no
// interval to test and yields an empty Result. Existing jobs are skipped
// when they cannot form an interval themselves (missing date, time or
// duration — no guessed defaults here, unlike the display path in
// OccupiedSlots), when they fall on a different local calendar day, or when
// both sides name different workers. An unset assignment on either side is
// treated as "could conflict with anyone".
//
// Intervals are half-open: [start, start+duration) against
// [jobStart, jobStart+jobDuration). Touching endpoints do not conflict, so
// a booking may begin exactly when another ends.
func CheckOverlap(c Candidate, jobs []Job, excludeID string) Result {
	if c.Date == "" || c.StartTime == "" || c.DurationHours <= 0 {
		return Result{}
	}

	candDate, err := ParseLocalDate(c.Date)
	if err != nil {
		return Result{}
	}
	candKey := DateKey(candDate)

	start, err := TimeToMinutes(c.StartTime)
	if err != nil {
		return Result{}
	}
	end := start + int(math.Round(c.DurationHours*60))

	var out Result
	for _, j := range jobs {
		if excludeID != "" && j.ID == excludeID {
			continue
		}
		if !j.Scheduled() || j.EstimatedDuration == nil {
			continue
		}
		jobDate, err := ParseLocalDate(j.ServiceDate)
		if err != nil || DateKey(jobDate) != candKey {
			continue
		}
		if c.AssignedTo != "" && j.AssignedTo != "" && c.AssignedTo != j.AssignedTo {
			continue
		}
		jobStart, err := TimeToMinutes(j.ScheduledTime)
		if err != nil {
			continue
		}
		jobEnd := jobStart + int(math.Round(*j.EstimatedDuration*60))
		if start < jobEnd && end > jobStart {
			out.Overlapping = append(out.Overlapping, j)
		}
	}
	out.HasOverlap = len(out.Overlapping) > 0
	return out
}

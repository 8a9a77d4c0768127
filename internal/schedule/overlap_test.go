package schedule

import "testing"

func hoursPtr(h float64) *float64 { return &h }

func existingJob(id, date, start string, hours float64, worker string) Job {
	return Job{
		ID:                id,
		ServiceDate:       date,
		ScheduledTime:     start,
		EstimatedDuration: hoursPtr(hours),
		AssignedTo:        worker,
	}
}

func TestCheckOverlap_StrictOverlap(t *testing.T) {
	existing := []Job{existingJob("job-1", "2024-05-01", "10:00", 1, "Ana")}
	cand := Candidate{Date: "2024-05-01", StartTime: "10:30", DurationHours: 1, AssignedTo: "Ana"}

	res := CheckOverlap(cand, existing, "")
	if !res.HasOverlap {
		t.Fatal("expected overlap")
	}
	if len(res.Overlapping) != 1 || res.Overlapping[0].ID != "job-1" {
		t.Errorf("expected job-1 in overlapping set, got %+v", res.Overlapping)
	}
}

func TestCheckOverlap_TouchingIntervalsDoNotConflict(t *testing.T) {
	existing := []Job{existingJob("job-1", "2024-05-01", "10:00", 1, "Ana")}

	// Starts exactly when the other ends.
	after := Candidate{Date: "2024-05-01", StartTime: "11:00", DurationHours: 1, AssignedTo: "Ana"}
	if CheckOverlap(after, existing, "").HasOverlap {
		t.Error("touching at the end must not conflict")
	}

	// Ends exactly when the other starts.
	before := Candidate{Date: "2024-05-01", StartTime: "09:00", DurationHours: 1, AssignedTo: "Ana"}
	if CheckOverlap(before, existing, "").HasOverlap {
		t.Error("touching at the start must not conflict")
	}
}

func TestCheckOverlap_ExcludeIDNeverSelfConflicts(t *testing.T) {
	existing := []Job{existingJob("job-1", "2024-05-01", "10:00", 2, "Ana")}
	cand := Candidate{Date: "2024-05-01", StartTime: "10:00", DurationHours: 2, AssignedTo: "Ana"}

	if res := CheckOverlap(cand, existing, "job-1"); res.HasOverlap {
		t.Errorf("a job edited in place conflicted with itself: %+v", res.Overlapping)
	}
}

func TestCheckOverlap_AssignmentFiltering(t *testing.T) {
	tests := []struct {
		name          string
		jobWorker     string
		candWorker    string
		expectOverlap bool
	}{
		{"same worker conflicts", "Ana", "Ana", true},
		{"different workers are independent", "Ana", "Luis", false},
		{"unassigned candidate conflicts with anyone", "Ana", "", true},
		{"unassigned existing conflicts with anyone", "", "Luis", true},
		{"both unassigned conflict", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := []Job{existingJob("job-1", "2024-05-01", "10:00", 1, tt.jobWorker)}
			cand := Candidate{Date: "2024-05-01", StartTime: "10:30", DurationHours: 1, AssignedTo: tt.candWorker}

			got := CheckOverlap(cand, existing, "").HasOverlap
			if got != tt.expectOverlap {
				t.Errorf("expected overlap=%v, got %v", tt.expectOverlap, got)
			}
		})
	}
}

func TestCheckOverlap_IncompleteCandidate(t *testing.T) {
	existing := []Job{existingJob("job-1", "2024-05-01", "10:00", 1, "")}

	tests := []struct {
		name string
		cand Candidate
	}{
		{"no date", Candidate{StartTime: "10:00", DurationHours: 1}},
		{"no start time", Candidate{Date: "2024-05-01", DurationHours: 1}},
		{"no duration", Candidate{Date: "2024-05-01", StartTime: "10:00"}},
		{"negative duration", Candidate{Date: "2024-05-01", StartTime: "10:00", DurationHours: -1}},
		{"unparseable date", Candidate{Date: "bogus", StartTime: "10:00", DurationHours: 1}},
		{"unparseable time", Candidate{Date: "2024-05-01", StartTime: "ten", DurationHours: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckOverlap(tt.cand, existing, "")
			if res.HasOverlap || len(res.Overlapping) != 0 {
				t.Errorf("incomplete candidate must short-circuit, got %+v", res)
			}
		})
	}
}

func TestCheckOverlap_SkipsJobsWithoutFullInterval(t *testing.T) {
	existing := []Job{
		{ID: "no-date", ScheduledTime: "10:00", EstimatedDuration: hoursPtr(1)},
		{ID: "no-time", ServiceDate: "2024-05-01", EstimatedDuration: hoursPtr(1)},
		{ID: "no-duration", ServiceDate: "2024-05-01", ScheduledTime: "10:00"},
		{ID: "bad-time", ServiceDate: "2024-05-01", ScheduledTime: "??", EstimatedDuration: hoursPtr(1)},
	}
	cand := Candidate{Date: "2024-05-01", StartTime: "10:00", DurationHours: 4}

	if res := CheckOverlap(cand, existing, ""); res.HasOverlap {
		t.Errorf("jobs without a full interval must be skipped, got %+v", res.Overlapping)
	}
}

func TestCheckOverlap_DifferentDay(t *testing.T) {
	existing := []Job{existingJob("job-1", "2024-05-02", "10:00", 1, "")}
	cand := Candidate{Date: "2024-05-01", StartTime: "10:00", DurationHours: 1}

	if CheckOverlap(cand, existing, "").HasOverlap {
		t.Error("jobs on another day must not conflict")
	}
}

func TestCheckOverlap_DateWithTimeSuffixMatchesSameDay(t *testing.T) {
	// Midnight-UTC service dates stay on their calendar day.
	existing := []Job{existingJob("job-1", "2024-05-01T00:00:00Z", "10:00", 1, "")}
	cand := Candidate{Date: "2024-05-01", StartTime: "10:30", DurationHours: 1}

	if !CheckOverlap(cand, existing, "").HasOverlap {
		t.Error("expected overlap across ISO datetime and plain date forms")
	}
}

func TestCheckOverlap_ReturnsAllMatchesInOrder(t *testing.T) {
	existing := []Job{
		existingJob("job-1", "2024-05-01", "09:00", 2, ""),
		existingJob("job-2", "2024-05-01", "13:00", 1, ""),
		existingJob("job-3", "2024-05-01", "10:00", 1, ""),
	}
	cand := Candidate{Date: "2024-05-01", StartTime: "09:30", DurationHours: 1.5}

	res := CheckOverlap(cand, existing, "")
	if len(res.Overlapping) != 2 {
		t.Fatalf("expected 2 overlapping jobs, got %d", len(res.Overlapping))
	}
	if res.Overlapping[0].ID != "job-1" || res.Overlapping[1].ID != "job-3" {
		t.Errorf("expected input order job-1, job-3, got %s, %s",
			res.Overlapping[0].ID, res.Overlapping[1].ID)
	}
}

func TestCheckOverlap_DoesNotMutateInput(t *testing.T) {
	existing := []Job{existingJob("job-1", "2024-05-01", "10:00", 1, "Ana")}
	snapshot := existing[0]

	_ = CheckOverlap(Candidate{Date: "2024-05-01", StartTime: "10:15", DurationHours: 1}, existing, "")

	if existing[0] != snapshot {
		t.Error("input slice was mutated")
	}
}

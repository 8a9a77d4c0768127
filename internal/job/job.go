// Package job provides the Job aggregate for field-service dispatch work.
// It includes the Job entity with its status state machine
// (Pending → Traveling → In Progress → Completed, with cancellation from
// any active state), as well as repository interfaces for persistence.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/fieldops/dispatch-api/internal/job/id"
	"github.com/fieldops/dispatch-api/internal/schedule"
)

// Status represents the current state of a Job as dispatchers see it.
type Status string

const (
	// StatusPending indicates the job is created and waiting for dispatch.
	StatusPending Status = "Pending"
	// StatusTraveling indicates the assigned worker is on the way.
	StatusTraveling Status = "Traveling"
	// StatusInProgress indicates the worker is on site doing the work.
	StatusInProgress Status = "In Progress"
	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = "Completed"
	// StatusCancelled indicates the job was called off.
	StatusCancelled Status = "Cancelled"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrUnknownStatus is returned when a status label is outside the vocabulary.
var ErrUnknownStatus = errors.New("unknown status")

// validTransitions defines which state transitions are allowed.
// Traveling may fall back to Pending when a worker turns around.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusTraveling, StatusInProgress, StatusCancelled},
	StatusTraveling:  {StatusInProgress, StatusPending, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ParseStatus validates a status label against the fixed vocabulary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusTraveling, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrUnknownStatus
}

// Job represents one field-service visit. Scheduling fields are carried as
// the wall-clock strings the scheduling core consumes: an ISO service date,
// an "HH:MM" start time and a duration in hours. A job is on the calendar
// only when both date and time are set.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// ClientName is the customer the visit is for.
	ClientName string
	// ClientAddress is the service location.
	ClientAddress string
	// Description is free-form work detail.
	Description string
	// ServiceDate is the ISO date of the visit, or "" while unscheduled.
	ServiceDate string
	// ScheduledTime is the "HH:MM" start, or "" while unscheduled.
	ScheduledTime string
	// EstimatedDuration is the expected length in hours; nil when no
	// estimate was given.
	EstimatedDuration *float64
	// AssignedTo is the worker's name, or "" while unassigned.
	AssignedTo string
	// Status is the current lifecycle state.
	Status Status
	// Priority is a display label (Low/Medium/High style, free-form).
	Priority string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial Pending status.
func New() *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a new Job with the specified ID and initial Pending
// status. Useful for testing or when the ID is externally generated.
func NewWithID(jobID string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusCompleted, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Depart transitions the job from Pending to Traveling.
func (j *Job) Depart() error {
	return j.TransitionTo(StatusTraveling)
}

// Begin transitions the job to In Progress.
func (j *Job) Begin() error {
	return j.TransitionTo(StatusInProgress)
}

// Complete transitions the job to Completed.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Cancel transitions the job to Cancelled.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// Scheduled reports whether the job holds both a service date and a start
// time. A date without a time keeps the job off the calendar grid.
func (j *Job) Scheduled() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.ServiceDate != "" && j.ScheduledTime != ""
}

// SetSchedule places the job on the calendar. Empty date and time
// unschedule it again.
func (j *Job) SetSchedule(serviceDate, scheduledTime string, duration *float64, assignedTo string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ServiceDate = serviceDate
	j.ScheduledTime = scheduledTime
	j.EstimatedDuration = duration
	j.AssignedTo = assignedTo
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusCancelled
}

// Snapshot returns the read-only scheduling view of the job that the
// schedule package consumes.
func (j *Job) Snapshot() schedule.Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var dur *float64
	if j.EstimatedDuration != nil {
		d := *j.EstimatedDuration
		dur = &d
	}

	return schedule.Job{
		ID:                j.ID,
		ServiceDate:       j.ServiceDate,
		ScheduledTime:     j.ScheduledTime,
		EstimatedDuration: dur,
		AssignedTo:        j.AssignedTo,
		Status:            string(j.Status),
		ClientName:        j.ClientName,
		Priority:          j.Priority,
	}
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var dur *float64
	if j.EstimatedDuration != nil {
		d := *j.EstimatedDuration
		dur = &d
	}

	return &Job{
		ID:                j.ID,
		ClientName:        j.ClientName,
		ClientAddress:     j.ClientAddress,
		Description:       j.Description,
		ServiceDate:       j.ServiceDate,
		ScheduledTime:     j.ScheduledTime,
		EstimatedDuration: dur,
		AssignedTo:        j.AssignedTo,
		Status:            j.Status,
		Priority:          j.Priority,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
		CompletedAt:       j.CompletedAt,
	}
}

// Package job also hosts the DispatchService use cases: creating, updating,
// rescheduling and transitioning jobs, with conflict checks delegated to
// the scheduling core before anything is saved.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldops/dispatch-api/internal/schedule"
)

// ConflictError is returned when a save would double-book a worker.
// Overlapping carries every conflicting booking so callers can surface
// "conflicts with <client> from <start> to <end>" to the user.
type ConflictError struct {
	Overlapping []schedule.Job
}

// Error describes the first conflict; that is what warning dialogs show.
func (e *ConflictError) Error() string {
	if len(e.Overlapping) == 0 {
		return "schedule conflict"
	}
	first := e.Overlapping[0]
	return fmt.Sprintf("schedule conflict with %s at %s on %s",
		first.ClientName, first.ScheduledTime, first.ServiceDate)
}

// DispatchService coordinates job CRUD and schedule placement. All
// scheduling decisions go through the pure functions in the schedule
// package; the service only supplies the job snapshots and persists the
// outcome.
type DispatchService struct {
	repo         Repository
	logger       *slog.Logger
	workingHours schedule.WorkingHours
}

// Option is a function that configures a DispatchService.
type Option func(*DispatchService)

// WithWorkingHours overrides the default 08:00–20:00 working-hours window.
func WithWorkingHours(wh schedule.WorkingHours) Option {
	return func(s *DispatchService) {
		s.workingHours = wh
	}
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(repo Repository, logger *slog.Logger, opts ...Option) *DispatchService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DispatchService{
		repo:         repo,
		logger:       logger,
		workingHours: schedule.WorkingHours{Start: "08:00", End: "20:00"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJobInput contains the fields of a new job. Scheduling fields are
// optional; a job may be created unscheduled and placed on the calendar
// later.
type CreateJobInput struct {
	ClientName        string
	ClientAddress     string
	Description       string
	ServiceDate       string
	ScheduledTime     string
	EstimatedDuration *float64
	AssignedTo        string
	Priority          string
	// Force saves the job even when it conflicts with an existing booking,
	// mirroring the dispatcher clicking through the overlap warning.
	Force bool
}

// CreateJob creates and persists a job. When the input carries a full
// schedule (date, time, duration) it is conflict-checked first and a
// ConflictError is returned instead of saving, unless Force is set.
func (s *DispatchService) CreateJob(ctx context.Context, in CreateJobInput) (*Job, error) {
	if !in.Force {
		if err := s.refuseConflicts(ctx, candidateFrom(in.ServiceDate, in.ScheduledTime, in.EstimatedDuration, in.AssignedTo), ""); err != nil {
			return nil, err
		}
	}

	j := New()
	j.ClientName = in.ClientName
	j.ClientAddress = in.ClientAddress
	j.Description = in.Description
	j.ServiceDate = in.ServiceDate
	j.ScheduledTime = in.ScheduledTime
	j.EstimatedDuration = in.EstimatedDuration
	j.AssignedTo = in.AssignedTo
	j.Priority = in.Priority

	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("job created",
		slog.String("job_id", j.ID),
		slog.String("client", j.ClientName),
		slog.Bool("scheduled", j.Scheduled()),
	)
	return j, nil
}

// GetJob retrieves a job by ID.
func (s *DispatchService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns jobs passing the filter, newest first.
func (s *DispatchService) ListJobs(ctx context.Context, f Filter) ([]*Job, error) {
	return s.repo.List(ctx, f)
}

// UpdateJobInput carries partial detail updates; nil fields are untouched.
// Schedule placement goes through Reschedule instead, so that every
// calendar move is conflict-checked.
type UpdateJobInput struct {
	ClientName    *string
	ClientAddress *string
	Description   *string
	Priority      *string
}

// UpdateJob applies detail changes to a job.
func (s *DispatchService) UpdateJob(ctx context.Context, id string, in UpdateJobInput) (*Job, error) {
	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.ClientName != nil {
		j.ClientName = *in.ClientName
	}
	if in.ClientAddress != nil {
		j.ClientAddress = *in.ClientAddress
	}
	if in.Description != nil {
		j.Description = *in.Description
	}
	if in.Priority != nil {
		j.Priority = *in.Priority
	}
	j.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// RescheduleInput is a calendar placement: the drop target of a drag, or
// the schedule fields of the edit form.
type RescheduleInput struct {
	ServiceDate       string
	ScheduledTime     string
	EstimatedDuration *float64
	AssignedTo        string
	// Force saves despite conflicts, as in CreateJobInput.
	Force bool
}

// Reschedule moves a job on the calendar. The job itself is excluded from
// the conflict check so an in-place edit never collides with its own
// current slot. Empty date and time unschedule the job.
func (s *DispatchService) Reschedule(ctx context.Context, id string, in RescheduleInput) (*Job, error) {
	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !in.Force {
		if err := s.refuseConflicts(ctx, candidateFrom(in.ServiceDate, in.ScheduledTime, in.EstimatedDuration, in.AssignedTo), id); err != nil {
			return nil, err
		}
	}

	j.SetSchedule(in.ServiceDate, in.ScheduledTime, in.EstimatedDuration, in.AssignedTo)

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, err
	}

	s.logger.Info("job rescheduled",
		slog.String("job_id", id),
		slog.String("service_date", in.ServiceDate),
		slog.String("scheduled_time", in.ScheduledTime),
		slog.String("assigned_to", in.AssignedTo),
	)
	return j, nil
}

// Transition moves a job through its lifecycle.
func (s *DispatchService) Transition(ctx context.Context, id string, status Status) (*Job, error) {
	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := j.TransitionTo(status); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, err
	}

	s.logger.Info("job transitioned",
		slog.String("job_id", id),
		slog.String("status", string(status)),
	)
	return j, nil
}

// DeleteJob removes a job.
func (s *DispatchService) DeleteJob(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("job deleted", slog.String("job_id", id))
	return nil
}

// CheckConflicts runs the overlap check against the current active jobs
// without saving anything: the dry run behind the edit form's warning.
func (s *DispatchService) CheckConflicts(ctx context.Context, cand schedule.Candidate, excludeID string) (schedule.Result, error) {
	snapshots, err := s.activeSnapshots(ctx)
	if err != nil {
		return schedule.Result{}, err
	}
	return schedule.CheckOverlap(cand, snapshots, excludeID), nil
}

// DaySchedule returns the working-hours slots and the occupied intervals of
// one day, optionally restricted to a single worker.
func (s *DispatchService) DaySchedule(ctx context.Context, date time.Time, worker string) ([]schedule.Slot, []schedule.Occupied, error) {
	slots, err := schedule.GenerateSlots(date, s.workingHours)
	if err != nil {
		return nil, nil, fmt.Errorf("generate slots: %w", err)
	}

	snapshots, err := s.activeSnapshots(ctx)
	if err != nil {
		return nil, nil, err
	}
	return slots, schedule.OccupiedSlots(date, snapshots, worker), nil
}

// activeSnapshots collects scheduling views of all non-terminal jobs.
// Completed and cancelled jobs are off the active grid: they neither render
// as occupied nor block new bookings.
func (s *DispatchService) activeSnapshots(ctx context.Context) ([]schedule.Job, error) {
	jobs, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	snapshots := make([]schedule.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.IsTerminal() {
			continue
		}
		snapshots = append(snapshots, j.Snapshot())
	}
	return snapshots, nil
}

// refuseConflicts returns a ConflictError when the candidate collides with
// an active booking. An incomplete candidate has nothing to check.
func (s *DispatchService) refuseConflicts(ctx context.Context, cand schedule.Candidate, excludeID string) error {
	res, err := s.CheckConflicts(ctx, cand, excludeID)
	if err != nil {
		return err
	}
	if res.HasOverlap {
		return &ConflictError{Overlapping: res.Overlapping}
	}
	return nil
}

func candidateFrom(date, clock string, duration *float64, assignedTo string) schedule.Candidate {
	c := schedule.Candidate{
		Date:       date,
		StartTime:  clock,
		AssignedTo: assignedTo,
	}
	if duration != nil {
		c.DurationHours = *duration
	}
	return c
}

// Package server provides the HTTP server for the dispatch API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// CreateJobRequest is the HTTP request body for creating a new job.
// Scheduling fields are optional: jobs may be created unscheduled and
// dragged onto the calendar later.
type CreateJobRequest struct {
	// ClientName is the customer the visit is for.
	ClientName string `json:"client_name" validate:"required"`
	// ClientAddress is the service location.
	ClientAddress string `json:"client_address"`
	// Description is free-form work detail.
	Description string `json:"description"`
	// ServiceDate is the ISO date of the visit.
	ServiceDate string `json:"service_date" validate:"omitempty,localdate"`
	// ScheduledTime is the "HH:MM" start time.
	ScheduledTime string `json:"scheduled_time" validate:"omitempty,clock"`
	// EstimatedDuration is the expected length in hours.
	EstimatedDuration *float64 `json:"estimated_duration" validate:"omitempty,gt=0,lte=24"`
	// AssignedTo is the worker's name.
	AssignedTo string `json:"assigned_to"`
	// Priority is a display label.
	Priority string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	// Force saves the job even when it conflicts with an existing booking.
	Force bool `json:"force"`
}

// UpdateJobRequest is the HTTP request body for partial detail updates.
// Absent fields are left untouched.
type UpdateJobRequest struct {
	ClientName    *string `json:"client_name"`
	ClientAddress *string `json:"client_address"`
	Description   *string `json:"description"`
	Priority      *string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
}

// ScheduleRequest is the HTTP request body for placing a job on the
// calendar (or clearing its placement with empty fields).
type ScheduleRequest struct {
	ServiceDate       string   `json:"service_date" validate:"omitempty,localdate"`
	ScheduledTime     string   `json:"scheduled_time" validate:"omitempty,clock"`
	EstimatedDuration *float64 `json:"estimated_duration" validate:"omitempty,gt=0,lte=24"`
	AssignedTo        string   `json:"assigned_to"`
	Force             bool     `json:"force"`
}

// TransitionRequest is the HTTP request body for a status change.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// ConflictCheckRequest is the dry-run overlap check the edit form issues
// before saving. Incomplete intervals are legal and simply report no
// conflict.
type ConflictCheckRequest struct {
	ServiceDate       string  `json:"service_date" validate:"omitempty,localdate"`
	ScheduledTime     string  `json:"scheduled_time" validate:"omitempty,clock"`
	EstimatedDuration float64 `json:"estimated_duration" validate:"omitempty,lte=24"`
	AssignedTo        string  `json:"assigned_to"`
	// ExcludeID names the job being edited, so it cannot conflict with itself.
	ExcludeID string `json:"exclude_id"`
}

// JobResponse is the HTTP representation of a job.
type JobResponse struct {
	ID                string   `json:"id"`
	ClientName        string   `json:"client_name"`
	ClientAddress     string   `json:"client_address,omitempty"`
	Description       string   `json:"description,omitempty"`
	ServiceDate       string   `json:"service_date,omitempty"`
	ScheduledTime     string   `json:"scheduled_time,omitempty"`
	EstimatedDuration *float64 `json:"estimated_duration,omitempty"`
	AssignedTo        string   `json:"assigned_to,omitempty"`
	Status            string   `json:"status"`
	Priority          string   `json:"priority,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
	CompletedAt       string   `json:"completed_at,omitempty"`
}

// JobListResponse wraps a job listing.
type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// ConflictingJob describes one booking that collides with the candidate,
// with its computed end time so warnings can read "14:00 to 15:00".
type ConflictingJob struct {
	JobID      string `json:"job_id"`
	ClientName string `json:"client_name"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// ConflictResponse is the outcome of an overlap check.
type ConflictResponse struct {
	HasOverlap  bool             `json:"has_overlap"`
	Overlapping []ConflictingJob `json:"overlapping"`
}

// DaysResponse lists the day cells of a calendar view.
type DaysResponse struct {
	View string   `json:"view"`
	Days []string `json:"days"`
}

// SlotResponse is one half-hour calendar slot.
type SlotResponse struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	DateKey string `json:"date_key"`
}

// SlotsResponse lists a day's working-hours slots.
type SlotsResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

// SegmentResponse is one 30-minute display cell of a booking.
type SegmentResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// OccupiedResponse is one booked interval, with the half-hour segments a
// calendar needs to render it across cells.
type OccupiedResponse struct {
	Start       string            `json:"start"`
	End         string            `json:"end"`
	JobID       string            `json:"job_id"`
	ClientLabel string            `json:"client_label"`
	Duration    float64           `json:"duration"`
	Priority    string            `json:"priority,omitempty"`
	Segments    []SegmentResponse `json:"segments"`
}

// OccupancyResponse lists a day's booked intervals.
type OccupancyResponse struct {
	Date     string             `json:"date"`
	Worker   string             `json:"worker,omitempty"`
	Occupied []OccupiedResponse `json:"occupied"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}

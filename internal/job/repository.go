package job

import (
	"context"
	"errors"
	"strings"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	// Status keeps only jobs in the given lifecycle state.
	Status Status
	// AssignedTo keeps only jobs assigned to the named worker
	// (exact string match).
	AssignedTo string
	// Query keeps jobs whose client name or address contains the text,
	// case-insensitively. This backs the queue view's search box.
	Query string
}

// Matches reports whether a job passes the filter.
func (f Filter) Matches(j *Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.AssignedTo != "" && j.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(j.ClientName), q) &&
			!strings.Contains(strings.ToLower(j.ClientAddress), q) {
			return false
		}
	}
	return true
}

// Repository defines the interface for job persistence.
// It acts as a port in the hexagonal architecture pattern.
type Repository interface {
	// Save persists a job to the storage.
	// If the job already exists, it should be updated.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all jobs passing the filter, newest first.
	List(ctx context.Context, f Filter) ([]*Job, error)

	// Delete removes a job from storage.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, id string) error
}

package job

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Register sqlite driver
)

//go:embed migrations/001_initial.sql
var migration string

const sqliteTimeFormat = time.RFC3339Nano

// Compile-time check that SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepository persists jobs in a SQLite database. It is the durable
// alternative to MemoryRepository for single-process deployments.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) a SQLite database at the given DSN.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// In-memory databases are per-connection; multiple connections each get
	// a separate empty database. Limit to one connection so migrations and
	// queries all see the same data.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(migration); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// NewSQLiteRepository creates a repository over an already-opened database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save inserts the job or, when the ID already exists, overwrites the row.
func (r *SQLiteRepository) Save(ctx context.Context, j *Job) error {
	const query = `INSERT INTO jobs (id, client_name, client_address, description,
			service_date, scheduled_time, estimated_duration, assigned_to,
			status, priority, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_name = excluded.client_name,
			client_address = excluded.client_address,
			description = excluded.description,
			service_date = excluded.service_date,
			scheduled_time = excluded.scheduled_time,
			estimated_duration = excluded.estimated_duration,
			assigned_to = excluded.assigned_to,
			status = excluded.status,
			priority = excluded.priority,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at`

	c := j.Clone()

	var serviceDate, scheduledTime, completedAt sql.NullString
	if c.ServiceDate != "" {
		serviceDate = sql.NullString{String: c.ServiceDate, Valid: true}
	}
	if c.ScheduledTime != "" {
		scheduledTime = sql.NullString{String: c.ScheduledTime, Valid: true}
	}
	if !c.CompletedAt.IsZero() {
		completedAt = sql.NullString{String: c.CompletedAt.Format(sqliteTimeFormat), Valid: true}
	}
	var duration sql.NullFloat64
	if c.EstimatedDuration != nil {
		duration = sql.NullFloat64{Float64: *c.EstimatedDuration, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ClientName, c.ClientAddress, c.Description,
		serviceDate, scheduledTime, duration, c.AssignedTo,
		string(c.Status), c.Priority,
		c.CreatedAt.Format(sqliteTimeFormat), c.UpdatedAt.Format(sqliteTimeFormat),
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

// FindByID retrieves a job by its ID.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*Job, error) {
	const query = `SELECT id, client_name, client_address, description,
			service_date, scheduled_time, estimated_duration, assigned_to,
			status, priority, created_at, updated_at, completed_at
		FROM jobs WHERE id = ?`

	j, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// List returns jobs passing the filter, newest first. Status and assignee
// narrow the query itself; the free-text search is applied in SQL over
// client name and address.
func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]*Job, error) {
	query := `SELECT id, client_name, client_address, description,
			service_date, scheduled_time, estimated_duration, assigned_to,
			status, priority, created_at, updated_at, completed_at
		FROM jobs WHERE 1=1`

	var args []any
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.AssignedTo != "" {
		query += " AND assigned_to = ?"
		args = append(args, f.AssignedTo)
	}
	if f.Query != "" {
		query += " AND (client_name LIKE ? COLLATE NOCASE OR client_address LIKE ? COLLATE NOCASE)"
		pattern := "%" + f.Query + "%"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Delete removes a job row.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	j := &Job{}
	var serviceDate, scheduledTime, completedAt sql.NullString
	var duration sql.NullFloat64
	var status, createdStr, updatedStr string

	err := row.Scan(
		&j.ID, &j.ClientName, &j.ClientAddress, &j.Description,
		&serviceDate, &scheduledTime, &duration, &j.AssignedTo,
		&status, &j.Priority, &createdStr, &updatedStr, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Status = Status(status)
	if serviceDate.Valid {
		j.ServiceDate = serviceDate.String
	}
	if scheduledTime.Valid {
		j.ScheduledTime = scheduledTime.String
	}
	if duration.Valid {
		d := duration.Float64
		j.EstimatedDuration = &d
	}
	j.CreatedAt, _ = time.Parse(sqliteTimeFormat, createdStr)
	j.UpdatedAt, _ = time.Parse(sqliteTimeFormat, updatedStr)
	if completedAt.Valid {
		j.CompletedAt, _ = time.Parse(sqliteTimeFormat, completedAt.String)
	}
	return j, nil
}

// Package bootstrap provides dependency initialization for the dispatch API.
package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fieldops/dispatch-api/internal/config"
	"github.com/fieldops/dispatch-api/internal/job"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	DispatchService *job.DispatchService

	db *sql.DB
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	repo, db, err := initRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	svc := job.NewDispatchService(
		repo,
		logger,
		job.WithWorkingHours(cfg.WorkingHours()),
	)

	return &Dependencies{
		DispatchService: svc,
		db:              db,
	}, nil
}

// Close releases held resources. Safe to call with no database open.
func (d *Dependencies) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// initRepository creates the appropriate job store based on configuration.
// With DB_PATH set jobs survive restarts in SQLite; otherwise they live in
// memory for the lifetime of the process.
func initRepository(cfg *config.Config, logger *slog.Logger) (job.Repository, *sql.DB, error) {
	if cfg.Persistent() {
		db, err := job.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("sqlite storage configured",
			slog.String("db_path", cfg.DBPath),
		)
		return job.NewSQLiteRepository(db), db, nil
	}

	logger.Info("in-memory storage configured")
	return job.NewMemoryRepository(), nil, nil
}

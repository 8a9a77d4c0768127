// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"github.com/fieldops/dispatch-api/internal/schedule"
)

// ErrBadWorkingHours is returned when the working-hours window is not a
// valid forward "HH:MM" range.
var ErrBadWorkingHours = errors.New("config: working hours must be a forward HH:MM range")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8080" json:"port"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Storage settings; an empty DB_PATH keeps jobs in memory.
	DBPath string `env:"DB_PATH" json:"db_path,omitempty"`

	// Scheduling settings
	WorkDayStart string `env:"WORK_DAY_START, default=08:00" json:"work_day_start"`
	WorkDayEnd   string `env:"WORK_DAY_END, default=20:00" json:"work_day_end"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the working-hours window parses and runs forward.
// An inverted window would silently render an empty calendar, so it is
// rejected at startup instead.
func (c *Config) Validate() error {
	start, err := schedule.TimeToMinutes(c.WorkDayStart)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadWorkingHours, err)
	}
	end, err := schedule.TimeToMinutes(c.WorkDayEnd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadWorkingHours, err)
	}
	if end <= start {
		return fmt.Errorf("%w: %s-%s", ErrBadWorkingHours, c.WorkDayStart, c.WorkDayEnd)
	}
	return nil
}

// WorkingHours returns the configured daily slot window.
func (c *Config) WorkingHours() schedule.WorkingHours {
	return schedule.WorkingHours{Start: c.WorkDayStart, End: c.WorkDayEnd}
}

// Persistent returns true if jobs should be stored in SQLite.
func (c *Config) Persistent() bool {
	return c.DBPath != ""
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, DBPath: %s, WorkDayStart: %s, WorkDayEnd: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.DBPath,
		c.WorkDayStart,
		c.WorkDayEnd,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

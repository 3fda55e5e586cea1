// Package logging configures zerolog for pagewindow components.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs per-page details and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs batch summaries and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs degraded collaborators and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs failures only.
	LevelError LogLevel = "error"
)

// Component names used with NewLogger.
const (
	ComponentPagination = "pagination"
	ComponentStore      = "store"
	ComponentCache      = "count-cache"
	ComponentHTTPSource = "http-source"
	ComponentRateLimit  = "rate-limit"
	ComponentServer     = "pagectl"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel `validate:"omitempty,oneof=debug info warn warning error"`

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

var validate = validator.New()

// Validate checks that the configured level is known.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("logger config: %w", err)
	}
	return nil
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts LogLevel to zerolog.Level. Unknown levels map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger derived from the global one with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug:
//   - every page built (page, per_page, offset, records, total_entries)
//   - store and cache operations (key, hit/miss)
//   - retry backoff decisions
//
// Info:
//   - batch iteration summaries (pages, records, duration)
//   - server startup/shutdown, seed/export results
//
// Warn:
//   - count cache errors (falling back to the source)
//   - aborted batch iterations
//   - remote rate limit throttling, retries exhausted
//
// Error:
//   - remote rate limit blocks
//   - command failures
//
// Context Fields:
//   - component: emitting package
//   - page, per_page, offset, total_entries: pagination window
//   - records, pages: batch progress
//   - key: Redis key
//   - endpoint, status, error_class: remote source requests

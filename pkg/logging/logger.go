// Package logging configures zerolog for the analyzer, its server and CLI.
//
// Levels are used as follows. Debug carries cache hits and misses, batch
// boundaries and cooldown skips. Info marks run start and finish, committed
// batches, generated reports and server lifecycle. Warn is for credential
// rotation, transient retries and model output replaced by error sentinels.
// Error is reserved for aborted runs and unreadable input.
//
// Common fields: run_id, batch, batch_size, credential (always masked),
// status_code, error_class, duration.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as accepted in PLACEMENT_LOG_LEVEL.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written. Unknown names mean info.
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it. Component
// loggers created afterwards with NewLogger inherit its output.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func parseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = "warn"
	}
	switch lvl, err := zerolog.ParseLevel(name); {
	case err != nil, name == "", lvl == zerolog.NoLevel:
		return zerolog.InfoLevel
	default:
		return lvl
	}
}

// NewLogger derives a logger for component from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithRun tags logger with an analysis run id.
func WithRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithBatch tags logger with a batch index and its size.
func WithBatch(logger zerolog.Logger, index, size int) zerolog.Logger {
	return logger.With().Int("batch", index).Int("batch_size", size).Logger()
}

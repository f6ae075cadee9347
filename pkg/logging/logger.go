// Package logging configures zerolog for duoload.
//
// Logs always go to stderr (or the configured writer) so that JSON exported
// to stdout stays machine readable.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled turns logging off.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

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

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	level, err := ParseLevel(string(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level.
// The empty string means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: per-page and per-request detail
//   - Page fetched (page, cards, has_next_page)
//   - Cache hit/miss, cache key, ttl
//   - Retry backoff scheduling
//   - Mongo bulk write batches
//
// Info: run milestones
//   - Transfer start and completion summary
//   - Progress every N processed cards
//   - Output written (destination, cards)
//   - Page limit reached
//
// Warn: degraded but continuing
//   - Cache errors (page fetched from the API instead)
//   - HTTP errors before a retry
//   - Retry attempts exhausted
//
// Error: the run fails
//   - Transfer failed (stage, page)
//   - HTTP request failed at the network level
//
// Context Fields:
//   - component: transfer, duocards-client, anki-output, json-output, mongo-output, cli
//   - stage: validation, fetch, sink-add, sink-finalize
//   - page: 1-based page number
//   - total_cards, duplicates, rejected: running counters
//   - error_class: client, server, rate_limit, network, protocol
//   - destination: file:<path>, stream, collection:<name>

// Package logger provides the structured logging interface used across the
// repository, backed by zerolog. Demo binaries use the console constructor
// for human-readable output; library code only ever sees the Logger
// interface, so tests can substitute a silent implementation.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Logger is the structured logging interface. Implementations must be safe
// for concurrent use; derived loggers returned by With carry their fields on
// every subsequent entry.
type Logger interface {
	// Debug logs a message at debug level with optional structured fields.
	Debug(msg string, fields ...Field)

	// Info logs a message at info level with optional structured fields.
	Info(msg string, fields ...Field)

	// Warn logs a message at warn level with optional structured fields.
	Warn(msg string, fields ...Field)

	// Error logs a message at error level with optional structured fields.
	Error(msg string, fields ...Field)

	// With returns a derived Logger that includes the given fields in every
	// entry. The receiver is unchanged.
	//
	// Parameters:
	//   - fields: Key-value pairs to attach to the derived logger
	//
	// Returns:
	//   - A new Logger carrying the fields
	With(fields ...Field) Logger
}

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger, tagging every entry with
// the service name and a timestamp and filtering below the given level.
//
// Parameters:
//   - l: The zerolog.Logger to write through
//   - serviceName: Added as a "service" field to every entry
//   - level: Minimum level to emit
//
// Returns:
//   - A Logger writing through the given zerolog instance
func NewZerologLogger(l zerolog.Logger, serviceName string, level zerolog.Level) Logger {
	return &zerologLogger{
		logger: l.With().Str("service", serviceName).Timestamp().Logger().Level(level),
	}
}

// NewConsoleLogger builds a Logger that writes human-readable output to
// stderr, which is what the demo binaries use.
//
// Parameters:
//   - serviceName: Added as a "service" field to every entry
//   - level: Minimum level to emit
//
// Returns:
//   - A console Logger
func NewConsoleLogger(serviceName string, level zerolog.Level) Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return NewZerologLogger(zerolog.New(out), serviceName, level)
}

// NewSilentLogger builds a Logger that discards everything. Tests use it so
// library code can log unconditionally.
func NewSilentLogger() Logger {
	return NewZerologLogger(zerolog.New(io.Discard), "test", zerolog.Disabled)
}

func (z *zerologLogger) Debug(msg string, fields ...Field) {
	z.logger.Debug().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields ...Field) {
	z.logger.Info().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields ...Field) {
	z.logger.Warn().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) Error(msg string, fields ...Field) {
	z.logger.Error().Fields(toMap(fields)).Msg(msg)
}

func (z *zerologLogger) With(fields ...Field) Logger {
	return &zerologLogger{
		logger: z.logger.With().Fields(toMap(fields)).Logger(),
	}
}

// toMap converts a slice of Field into the map form zerolog consumes.
func toMap(fields []Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}

	return m
}

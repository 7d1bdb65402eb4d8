// Package logger defines the structured logging interface used across the
// relay service. Implementations live in internal/infrastructure/monitoring.
package logger

import "context"

// Fields is a set of key-value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the structured, context-aware logging interface.
type Logger interface {
	// Debug logs a debug message.
	Debug(ctx context.Context, msg string, fields ...Fields)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, fields ...Fields)

	// Warn logs a warning message.
	Warn(ctx context.Context, msg string, fields ...Fields)

	// Error logs an error message.
	Error(ctx context.Context, msg string, err error, fields ...Fields)

	// Fatal logs a fatal message and exits the process.
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a logger that attaches fields to every entry.
	WithFields(fields Fields) Logger

	// WithComponent returns a logger scoped to a named component.
	WithComponent(component string) Logger
}

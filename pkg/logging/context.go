// Package logging provides structured logging for pid-manager.
package logging

import (
	"context"

	"github.com/go-logr/logr"
)

// contextKey is the type for context keys
type contextKey string

// loggerKey is the context key for the logger
const loggerKey contextKey = "logger"

// FromContext returns the logger from the context.
// If no logger is found, returns the global logger.
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return GetGlobalLogger()
	}
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}
	return GetGlobalLogger()
}

// IntoContext returns a new context carrying the logger.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LogrFromContext returns a logr.Logger from the context.
func LogrFromContext(ctx context.Context) logr.Logger {
	return FromContext(ctx).Logger()
}

// ContextWithLogger creates a new context with a named logger.
// This is useful for creating component-specific loggers.
func ContextWithLogger(ctx context.Context, name string) context.Context {
	return IntoContext(ctx, FromContext(ctx).WithName(name))
}

// LoggerForPool returns a logger with the identifier range attached.
func LoggerForPool(min, max int) *Logger {
	return GetGlobalLogger().WithValues(
		"poolMin", min,
		"poolMax", max,
	)
}

// LoggerForRequest returns a logger for a single service request.
func LoggerForRequest(operation string) *Logger {
	return GetGlobalLogger().WithName("pidserver").WithValues(
		"operation", operation,
	)
}

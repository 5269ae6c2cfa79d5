/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package stackdriver

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/go-logr/logr"
)

type loggerKey struct{}

// AddLoggerToContext returns a new Context with the given logger
func AddLoggerToContext(ctx context.Context, logger logr.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLoggerFromContext returns the Logger stored in context
// Returns a no-op logger if none is found
func GetLoggerFromContext(ctx context.Context) logr.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(logr.Logger); ok {
		return logger
	}
	return logr.Discard()
}

// NewRequestLogger bridges a slog handler into a logr.Logger correlated with the trace of ctx.
// Handlers other than *Handler receive the trace values under their propagation names.
func NewRequestLogger(ctx context.Context, handler slog.Handler) logr.Logger {
	if h, ok := handler.(*Handler); ok {
		return logr.FromSlogHandler(h.ForContext(ctx))
	}
	logger := logr.FromSlogHandler(handler)
	if tc, ok := TraceContextFromContext(ctx); ok {
		fields := tc.Fields()
		keysAndValues := make([]any, 0, 2*len(fields))
		for _, key := range slices.Sorted(maps.Keys(fields)) {
			keysAndValues = append(keysAndValues, key, fields[key])
		}
		logger = logger.WithValues(keysAndValues...)
	}
	return logger
}

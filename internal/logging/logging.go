// Package logging wraps log/slog with the handful of helpers every
// component uses: context propagation, uniform error and operation records,
// and close-with-logging for deferred cleanup.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type contextKey struct{}

// NewLogger returns a JSON logger for production and a text logger otherwise.
// Verbose enables debug records.
func NewLogger(w io.Writer, production bool, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if production {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// LogError records msg at error level with err attached.
func LogError(logger *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.Any("error", err))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	logger.Error(msg, args...)
}

// LogOperation records a named operation at info level. Operation names are
// snake_case so they can be grepped and aggregated.
func LogOperation(logger *slog.Logger, operation string, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("operation", operation))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	logger.Info(operation, args...)
}

// LogHTTPRequest records one served request.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	args := []any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}

	switch {
	case status >= 500:
		logger.Error("http_request", args...)
	case status >= 400:
		logger.Warn("http_request", args...)
	default:
		logger.Info("http_request", args...)
	}
}

// SafeCloseWithLogging closes c and logs a failure instead of dropping it.
// Intended for defer.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, resource string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(logger, "failed to close resource", err, slog.String("resource", resource))
	}
}

package segmento

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with segmento-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCluster adds a cluster field to the logger.
func (l *Logger) WithCluster(cluster int) *Logger {
	return &Logger{
		Logger: l.Logger.With("cluster", cluster),
	}
}

// WithVersion adds a bundle version field to the logger.
func (l *Logger) WithVersion(version uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("version", version),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogLoad logs a bundle load.
func (l *Logger) LogLoad(ctx context.Context, manifest string, version uint64, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "bundle load failed",
			"manifest", manifest,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "bundle loaded",
			"manifest", manifest,
			"version", version,
			"records", records,
		)
	}
}

// LogPredict logs a single prediction. Validation failures are caller
// errors and log at debug level; everything else is an error.
func (l *Logger) LogPredict(ctx context.Context, cluster int, err error) {
	switch {
	case err == nil:
		l.DebugContext(ctx, "predict completed",
			"cluster", cluster,
		)
	case errors.Is(err, ErrValidation):
		l.DebugContext(ctx, "predict rejected",
			"error", err,
		)
	default:
		l.ErrorContext(ctx, "predict failed",
			"error", err,
		)
	}
}

// LogBatchPredict logs a batch prediction.
func (l *Logger) LogBatchPredict(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch predict completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.DebugContext(ctx, "batch predict completed",
			"count", count,
		)
	}
}

// LogAnalytics logs an analytics query.
func (l *Logger) LogAnalytics(ctx context.Context, op string, err error) {
	switch {
	case err == nil:
		l.DebugContext(ctx, "analytics completed",
			"op", op,
		)
	case errors.Is(err, ErrUnknownCluster):
		l.DebugContext(ctx, "analytics rejected",
			"op", op,
			"error", err,
		)
	default:
		l.ErrorContext(ctx, "analytics failed",
			"op", op,
			"error", err,
		)
	}
}

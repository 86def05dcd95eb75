package ygggo_mysqlx

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	Level              slog.Level
}

var (
	defaultLogger = newLogger(slog.LevelInfo)
)

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// EnableLogging enables or disables structured logging for this connection
func (c *Conn) EnableLogging(enabled bool) {
	if c == nil {
		return
	}
	c.loggingEnabled = enabled
	if enabled && c.logger == nil {
		c.logger = defaultLogger
	}
}

// SetLogger sets a custom logger for this connection
func (c *Conn) SetLogger(logger *slog.Logger) {
	if c == nil {
		return
	}
	c.logger = logger
}

// SetSlowQueryThreshold sets the duration above which executions log at WARN.
func (c *Conn) SetSlowQueryThreshold(d time.Duration) {
	if c == nil {
		return
	}
	c.slowQueryThreshold = d
}

// observe feeds one execution or fallback to the logger, the metrics and
// the slow query recorder.
func (c *Conn) observe(ctx context.Context, operation string, s *Stmt, duration time.Duration, err error) {
	c.logExec(ctx, operation, s, duration, err)
	c.recordExec(ctx, operation, duration, err)
	c.slowQueries.record(operation, s, duration, err)
}

// logExec logs a statement execution with structured fields
func (c *Conn) logExec(ctx context.Context, operation string, s *Stmt, duration time.Duration, err error) {
	if c == nil || !c.loggingEnabled || c.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("query", s.positional),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
		slog.Int("exec_count", s.execCount),
	}

	// values themselves may be sensitive; log only how many there were
	if len(s.values) > 0 {
		attrs = append(attrs, slog.Int("arg_count", len(s.values)))
	}

	if err != nil {
		attrs = append(attrs,
			slog.String("status", "error"),
			slog.String("error", err.Error()),
			slog.String("error_class", Classify(err).String()),
		)
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) {
			attrs = append(attrs, slog.Int("error_code", int(mysqlErr.Number)))
		}
		if preview, perr := s.Preview(); perr == nil {
			attrs = append(attrs, slog.String("preview", preview))
		}
	} else {
		attrs = append(attrs, slog.String("status", "success"))
	}

	switch {
	case operation == "execute" && IsOutOfSync(err):
		c.logger.LogAttrs(ctx, slog.LevelWarn, "out of sync, retrying as plain query", attrs...)
	case c.slowQueryThreshold > 0 && duration > c.slowQueryThreshold:
		c.logger.LogAttrs(ctx, slog.LevelWarn, "slow statement detected", attrs...)
	case err != nil:
		c.logger.LogAttrs(ctx, slog.LevelError, "statement executed", attrs...)
	default:
		c.logger.LogAttrs(ctx, slog.LevelInfo, "statement executed", attrs...)
	}
}

// logPrepareError logs a query the driver refused to prepare.
func (c *Conn) logPrepareError(ctx context.Context, query string, err *ConnectionError) {
	if c == nil || !c.loggingEnabled || c.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("operation", "prepare"),
		slog.String("query", query),
		slog.String("status", "error"),
		slog.String("error", err.Error()),
	}
	if err.Code != 0 {
		attrs = append(attrs, slog.Int("error_code", err.Code))
	}
	c.logger.LogAttrs(ctx, slog.LevelError, "prepare failed", attrs...)
}

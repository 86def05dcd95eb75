package ygggo_mysqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Conn wraps a driver Handle with named placeholders, buffered results and
// the out-of-sync fallback. A Conn is not safe for concurrent use; acquire
// one per goroutine from a DB.
type Conn struct {
	h      Handle
	closer io.Closer

	latest       *Stmt
	lenientNamed bool
	cache        *stmtCache

	logger             *slog.Logger
	loggingEnabled     bool
	slowQueryThreshold time.Duration

	telemetryEnabled bool
	tracerProvider   trace.TracerProvider

	metricsEnabled bool
	meterProvider  metric.MeterProvider
	metrics        *Metrics

	slowQueries *SlowQueryRecorder
}

// NewConn wraps h. The logging, telemetry, metrics, statement cache and
// named-binding settings of cfg are applied; connection fields are ignored.
func NewConn(h Handle, cfg Config) *Conn {
	c := &Conn{h: h, lenientNamed: cfg.LenientNamed}
	c.slowQueryThreshold = cfg.SlowQueryThreshold
	if cfg.Logging.SlowQueryThreshold > 0 {
		c.slowQueryThreshold = cfg.Logging.SlowQueryThreshold
	}
	if cfg.Logging.Enabled {
		if cfg.Logging.Level != slog.LevelInfo {
			c.logger = newLogger(cfg.Logging.Level)
		}
		c.EnableLogging(true)
	}
	if cfg.Telemetry.Enabled {
		c.EnableTelemetry(true)
	}
	if cfg.Metrics.Enabled {
		c.EnableMetrics(true)
	}
	if cfg.StmtCacheSize > 0 {
		c.EnableStmtCache(cfg.StmtCacheSize)
	}
	return c
}

// Prepare translates :name placeholders to positional ones, prepares the
// query with the driver and binds args when given.
//
// args may be several positional values, a single slice of positional
// values, a single map[string]any or struct of named values (struct fields
// use their `db` tag), or a single scalar.
func (c *Conn) Prepare(ctx context.Context, query string, args ...any) (*Stmt, error) {
	if c == nil || c.h == nil {
		return nil, &ConnectionError{Op: "prepare", Query: query, Message: sql.ErrConnDone.Error(), Err: sql.ErrConnDone}
	}
	positional, names := translateNamed(query)

	spanCtx, span := c.startSpan(ctx, "prepare", positional)
	start := time.Now()
	handle, cached, err := c.cache.getOrPrepare(spanCtx, c.h, positional)
	c.finishSpan(span, err)
	c.recordPrepare(ctx, time.Since(start), err)
	if err != nil {
		cerr := newError(err, nil).(*ConnectionError)
		cerr.Op, cerr.Query = "prepare", positional
		c.logPrepareError(ctx, positional, cerr)
		return nil, cerr
	}

	s := &Stmt{
		conn:       c,
		handle:     handle,
		cached:     cached,
		query:      query,
		positional: positional,
		names:      names,
		rows:       returnsRows(positional),
		values:     []any{},
		types:      []ParamType{},
	}
	if len(args) > 0 {
		if err := s.Bind(args...); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

// stmtFor resolves the query-or-statement argument of the shorthand methods.
// owned is true when the statement was prepared here and must be closed.
func (c *Conn) stmtFor(ctx context.Context, query any) (s *Stmt, owned bool, err error) {
	switch q := query.(type) {
	case *Stmt:
		if q == nil {
			return nil, false, errors.New("ygggo_mysqlx: nil statement")
		}
		return q, false, nil
	case string:
		s, err := c.Prepare(ctx, q)
		return s, err == nil, err
	default:
		return nil, false, fmt.Errorf("ygggo_mysqlx: expected query string or *Stmt, got %T", query)
	}
}

// Execute runs query, a string or a *Stmt, and returns the executed
// statement. A statement prepared from a string belongs to the caller, who
// must Close it; on failure it is closed here and nil is returned, the
// error still carrying it for diagnostics.
func (c *Conn) Execute(ctx context.Context, query any, args ...any) (*Stmt, error) {
	s, owned, err := c.stmtFor(ctx, query)
	if err != nil {
		return nil, err
	}
	if _, err := s.Execute(ctx, args...); err != nil {
		if owned {
			_ = s.Close()
			return nil, err
		}
		return s, err
	}
	return s, nil
}

// FetchAll runs query and returns every row.
func (c *Conn) FetchAll(ctx context.Context, query any, args ...any) ([]Row, error) {
	s, owned, err := c.stmtFor(ctx, query)
	if err != nil {
		return nil, err
	}
	if owned {
		defer s.Close()
	}
	return s.FetchAll(ctx, args...)
}

// FetchRow runs query and returns its first row, or an empty Row.
func (c *Conn) FetchRow(ctx context.Context, query any, args ...any) (Row, error) {
	s, owned, err := c.stmtFor(ctx, query)
	if err != nil {
		return nil, err
	}
	if owned {
		defer s.Close()
	}
	return s.FetchRow(ctx, args...)
}

// FetchColumn runs query and returns the first column of every row.
func (c *Conn) FetchColumn(ctx context.Context, query any, args ...any) ([]any, error) {
	s, owned, err := c.stmtFor(ctx, query)
	if err != nil {
		return nil, err
	}
	if owned {
		defer s.Close()
	}
	return s.FetchColumn(ctx, args...)
}

// FetchValue runs query and returns the first column of its first row, or nil.
func (c *Conn) FetchValue(ctx context.Context, query any, args ...any) (any, error) {
	s, owned, err := c.stmtFor(ctx, query)
	if err != nil {
		return nil, err
	}
	if owned {
		defer s.Close()
	}
	return s.FetchValue(ctx, args...)
}

// plainQuery sends text without bind parameters. Only the out-of-sync
// fallback uses it.
func (c *Conn) plainQuery(ctx context.Context, text string, rows bool) (*Result, error) {
	spanCtx, span := c.startSpan(ctx, "fallback", text)
	var (
		res *Result
		err error
	)
	if rows {
		var rs *sql.Rows
		rs, err = c.h.QueryContext(spanCtx, text)
		if err == nil {
			res, err = bufferRows(rs)
		}
	} else {
		var r sql.Result
		r, err = c.h.ExecContext(spanCtx, text)
		if err == nil {
			res = execResult(r)
		}
	}
	c.finishSpan(span, err)
	return res, err
}

// LatestStmt is the statement most recently executed on this Conn.
func (c *Conn) LatestStmt() *Stmt { return c.latest }

// LastInsertID is the insert id reported by the latest execution.
func (c *Conn) LastInsertID() int64 {
	if c.latest == nil {
		return 0
	}
	return c.latest.InsertID()
}

// AffectedRows is the affected row count reported by the latest execution.
func (c *Conn) AffectedRows() int64 {
	if c.latest == nil {
		return 0
	}
	return c.latest.AffectedRows()
}

// Close releases cached statements and, for connections acquired from a
// DB, returns the connection to the pool.
func (c *Conn) Close() error {
	if c == nil {
		return nil
	}
	c.cache.closeAll()
	c.latest = nil
	if c.closer != nil {
		err := c.closer.Close()
		c.closer = nil
		return err
	}
	return nil
}

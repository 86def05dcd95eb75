package ygggo_mysqlx

import (
	"context"
	"database/sql"
	"time"
)

// State is where a Stmt is in its bind/execute cycle.
type State int

const (
	StatePrepared State = iota
	StateBound
	StateExecuting
	StateSucceeded
	StateFailed
	StateRecovered
)

func (s State) String() string {
	switch s {
	case StatePrepared:
		return "prepared"
	case StateBound:
		return "bound"
	case StateExecuting:
		return "executing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Stmt is a prepared statement that accepts :name placeholders, keeps the
// bound values with their inferred types and times its executions.
//
// A Stmt is not safe for concurrent use.
type Stmt struct {
	conn   *Conn
	handle *sql.Stmt
	cached bool // handle belongs to the conn's statement cache

	query      string
	positional string
	names      []string
	rows       bool

	values []any
	types  []ParamType

	state         State
	executed      bool
	execCount     int
	duration      time.Duration
	totalDuration time.Duration

	preview    string
	hasPreview bool

	result *Result
}

// Bind replaces the bound values. See Conn.Prepare for the accepted shapes
// of args. Calling Bind with no arguments clears the binding.
func (s *Stmt) Bind(args ...any) error {
	s.values, s.types = []any{}, []ParamType{}
	s.hasPreview = false
	if len(args) == 0 {
		return nil
	}
	vs, err := collectValues(args)
	if err != nil {
		return &StatementError{Stmt: s, Message: err.Error(), Err: err}
	}
	values, types, missing := bindValues(vs, s.names, s.conn.lenientNamed)
	if missing != "" {
		return newBindMismatch(s, "Missing placeholder value for :%s", missing)
	}
	s.values, s.types = values, types
	s.state = StateBound
	return nil
}

// Execute binds args when given (otherwise the previous binding is reused)
// and runs the statement, buffering its result. When the driver reports
// that commands are out of sync, the statement is re-issued once as a plain
// query built from its preview.
func (s *Stmt) Execute(ctx context.Context, args ...any) (*Stmt, error) {
	if s.handle == nil {
		return s, &StatementError{Stmt: s, Message: "statement is closed", Err: ErrStmtClosed}
	}
	s.result = nil
	s.hasPreview = false
	if len(args) > 0 {
		if err := s.Bind(args...); err != nil {
			return s, err
		}
	}
	s.conn.latest = s
	s.state = StateExecuting

	spanCtx, span := s.conn.startSpan(ctx, "execute", s.positional)
	start := time.Now()
	res, err := s.run(spanCtx)
	s.duration = time.Since(start)
	s.totalDuration += s.duration
	s.executed = true
	s.execCount++
	s.conn.finishSpan(span, err)

	if err != nil {
		err = newError(err, s)
		if IsOutOfSync(err) {
			s.conn.observe(ctx, "execute", s, s.duration, err)
			return s.fallback(ctx)
		}
		s.state = StateFailed
		s.conn.observe(ctx, "execute", s, s.duration, err)
		return s, err
	}
	s.result = res
	s.state = StateSucceeded
	s.conn.observe(ctx, "execute", s, s.duration, nil)
	return s, nil
}

func (s *Stmt) run(ctx context.Context) (*Result, error) {
	if s.rows {
		rs, err := s.handle.QueryContext(ctx, s.values...)
		if err != nil {
			return nil, err
		}
		return bufferRows(rs)
	}
	r, err := s.handle.ExecContext(ctx, s.values...)
	if err != nil {
		return nil, err
	}
	return execResult(r), nil
}

// fallback re-issues the statement as a plain query. Its own failure is
// returned as-is.
func (s *Stmt) fallback(ctx context.Context) (*Stmt, error) {
	text, err := s.Preview()
	if err != nil {
		s.state = StateFailed
		return s, err
	}
	start := time.Now()
	res, err := s.conn.plainQuery(ctx, text, s.rows)
	s.conn.observe(ctx, "fallback", s, time.Since(start), err)
	if err != nil {
		s.state = StateFailed
		return s, err
	}
	s.result = res
	s.state = StateRecovered
	return s, nil
}

// FetchAll executes the statement and returns every row.
func (s *Stmt) FetchAll(ctx context.Context, args ...any) ([]Row, error) {
	if _, err := s.Execute(ctx, args...); err != nil {
		return nil, err
	}
	return s.result.Rows(), nil
}

// FetchRow executes the statement and returns the first row, or an empty Row.
func (s *Stmt) FetchRow(ctx context.Context, args ...any) (Row, error) {
	if _, err := s.Execute(ctx, args...); err != nil {
		return nil, err
	}
	return s.result.Row(0), nil
}

// FetchColumn executes the statement and returns the first column of every row.
func (s *Stmt) FetchColumn(ctx context.Context, args ...any) ([]any, error) {
	if _, err := s.Execute(ctx, args...); err != nil {
		return nil, err
	}
	return s.result.Column(0), nil
}

// FetchValue executes the statement and returns the first column of the
// first row, or nil when there is none.
func (s *Stmt) FetchValue(ctx context.Context, args ...any) (any, error) {
	if _, err := s.Execute(ctx, args...); err != nil {
		return nil, err
	}
	return s.result.Value(), nil
}

// Close releases the driver statement unless it is owned by the statement
// cache. A closed Stmt fails every later Execute with ErrStmtClosed.
func (s *Stmt) Close() error {
	if s == nil || s.handle == nil {
		return nil
	}
	h := s.handle
	s.handle = nil
	if s.cached {
		return nil
	}
	return h.Close()
}

func (s *Stmt) Query() string { return s.query }
func (s *Stmt) PositionalQuery() string { return s.positional }
func (s *Stmt) State() State { return s.state }
func (s *Stmt) Executed() bool { return s.executed }
func (s *Stmt) ExecCount() int { return s.execCount }
func (s *Stmt) Result() *Result { return s.result }

// Names returns the named placeholders in occurrence order.
func (s *Stmt) Names() []string { return append([]string(nil), s.names...) }

// Duration is the wall-clock time of the latest execution.
func (s *Stmt) Duration() time.Duration { return s.duration }

// TotalDuration sums the durations of every execution of this statement.
func (s *Stmt) TotalDuration() time.Duration { return s.totalDuration }

func (s *Stmt) BoundValues() []any { return append([]any(nil), s.values...) }
func (s *Stmt) BoundTypes() []ParamType { return append([]ParamType(nil), s.types...) }

func (s *Stmt) InsertID() int64 { return s.result.LastInsertID() }
func (s *Stmt) RowCount() int { return s.result.NumRows() }
func (s *Stmt) AffectedRows() int64 { return s.result.RowsAffected() }

package ygggo_mysqlx

import (
	"database/sql"
	"strings"
)

// Row maps column names to values. Text and blob columns come back as string.
type Row map[string]any

// Result is a fully buffered statement result. Row-producing statements
// carry columns and rows; others carry the insert id and affected count.
type Result struct {
	columns      []string
	rows         [][]any
	hasRows      bool
	lastInsertID int64
	rowsAffected int64
}

// Columns returns the column names in select order.
func (r *Result) Columns() []string {
	if r == nil {
		return nil
	}
	return r.columns
}

// HasRows reports whether the statement produced a result set.
func (r *Result) HasRows() bool { return r != nil && r.hasRows }

// NumRows is the number of buffered rows.
func (r *Result) NumRows() int {
	if r == nil {
		return 0
	}
	return len(r.rows)
}

// LastInsertID is the id generated by an INSERT, 0 otherwise.
func (r *Result) LastInsertID() int64 {
	if r == nil {
		return 0
	}
	return r.lastInsertID
}

// RowsAffected is the affected count of a write, or the row count of a read.
func (r *Result) RowsAffected() int64 {
	if r == nil {
		return 0
	}
	return r.rowsAffected
}

// Rows returns every row as a Row; never nil.
func (r *Result) Rows() []Row {
	if r == nil {
		return []Row{}
	}
	out := make([]Row, len(r.rows))
	for i := range r.rows {
		out[i] = r.row(i)
	}
	return out
}

// Row returns row i or an empty Row if it does not exist.
func (r *Result) Row(i int) Row {
	if r == nil || i < 0 || i >= len(r.rows) {
		return Row{}
	}
	return r.row(i)
}

func (r *Result) row(i int) Row {
	m := make(Row, len(r.columns))
	for j, c := range r.columns {
		m[c] = r.rows[i][j]
	}
	return m
}

// Column returns column j of every row; never nil.
func (r *Result) Column(j int) []any {
	if r == nil || j < 0 || j >= len(r.columns) {
		return []any{}
	}
	out := make([]any, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[j]
	}
	return out
}

// Value returns the first column of the first row, or nil.
func (r *Result) Value() any {
	if r == nil || len(r.rows) == 0 || len(r.columns) == 0 {
		return nil
	}
	return r.rows[0][0]
}

// bufferRows drains and closes rs.
func bufferRows(rs *sql.Rows) (*Result, error) {
	defer rs.Close()
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	res := &Result{columns: cols, rows: [][]any{}, hasRows: true}
	for rs.Next() {
		buf := make([]any, len(cols))
		scan := make([]any, len(cols))
		for i := range buf {
			scan[i] = &buf[i]
		}
		if err := rs.Scan(scan...); err != nil {
			return nil, err
		}
		for i, v := range buf {
			if b, ok := v.([]byte); ok {
				buf[i] = string(b)
			}
		}
		res.rows = append(res.rows, buf)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	res.rowsAffected = int64(len(res.rows))
	return res, nil
}

// execResult copies what the driver reports about a write. Drivers that do
// not support one of the counters leave it at 0.
func execResult(r sql.Result) *Result {
	res := &Result{}
	if r == nil {
		return res
	}
	if id, err := r.LastInsertId(); err == nil {
		res.lastInsertID = id
	}
	if n, err := r.RowsAffected(); err == nil {
		res.rowsAffected = n
	}
	return res
}

var rowKeywords = map[string]bool{
	"SELECT": true, "SHOW": true, "DESCRIBE": true, "DESC": true, "EXPLAIN": true,
	"WITH": true, "VALUES": true, "TABLE": true, "CALL": true,
}

// returnsRows guesses from the leading keyword whether query produces a
// result set. Leading comments are skipped.
func returnsRows(query string) bool {
	q := skipLeadingComments(query)
	if strings.HasPrefix(q, "(") {
		return true
	}
	end := strings.IndexFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end < 0 {
		end = len(q)
	}
	return rowKeywords[strings.ToUpper(q[:end])]
}

// skipLeadingComments drops whitespace and any /* */, -- or # comments in
// front of the first keyword. An unterminated block comment leaves nothing.
func skipLeadingComments(q string) string {
	for {
		q = strings.TrimSpace(q)
		switch {
		case strings.HasPrefix(q, "/*"):
			end := strings.Index(q[2:], "*/")
			if end < 0 {
				return ""
			}
			q = q[end+4:]
		case strings.HasPrefix(q, "--"), strings.HasPrefix(q, "#"):
			end := strings.IndexByte(q, '\n')
			if end < 0 {
				return ""
			}
			q = q[end+1:]
		default:
			return q
		}
	}
}

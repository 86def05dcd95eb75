package ygggo_mysqlx

import (
	"context"
	"database/sql"
)

// Handle is the part of the driver a Conn needs: preparing statements and
// running plain queries. *sql.DB, *sql.Conn and *sql.Tx all satisfy it.
type Handle interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ensure the database/sql handles implement Handle at compile time
var (
	_ Handle = (*sql.DB)(nil)
	_ Handle = (*sql.Conn)(nil)
	_ Handle = (*sql.Tx)(nil)
)

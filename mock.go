package ygggo_mysqlx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DATA-DOG/go-sqlmock"
)

// Mock is a Conn backed by go-sqlmock for unit tests of code that uses this
// package. Queries are matched verbatim, after placeholder translation, so
// expectations name the positional query: ExpectPrepare("SELECT * FROM t
// WHERE id = ?") for a statement prepared from "... WHERE id = :id".
type Mock struct {
	*Conn
	sqlmock.Sqlmock
	db *sql.DB
}

// NewMock returns a Conn pinned to a single sqlmock connection. cfg supplies
// the logging, telemetry, metrics and binding settings.
func NewMock(cfg Config) (*Mock, error) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlmock: %w", err)
	}
	sc, err := db.Conn(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to acquire mock connection: %w", err)
	}
	c := NewConn(sc, cfg)
	c.closer = sc
	return &Mock{Conn: c, Sqlmock: mock, db: db}, nil
}

// Close closes the Conn and the mock database. The database close error is
// dropped: sqlmock reports a close without ExpectClose as an error.
func (m *Mock) Close() error {
	if m == nil {
		return nil
	}
	err := m.Conn.Close()
	_ = m.db.Close()
	return err
}

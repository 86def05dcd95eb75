package ygggo_mysqlx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConn_ShorthandWithQueryString(t *testing.T) {
	c, mock := newMockConn(t, Config{})
	ctx := context.Background()

	mock.ExpectPrepare("SELECT COUNT(*) FROM users WHERE active = ?").
		WillBeClosed().
		ExpectQuery().WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(3)))

	n, err := c.FetchValue(ctx, "SELECT COUNT(*) FROM users WHERE active = :active", map[string]any{"active": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NotNil(t, c.LatestStmt())
	assert.Equal(t, "SELECT COUNT(*) FROM users WHERE active = 1", c.LatestStmt().String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_ShorthandWithStmt(t *testing.T) {
	c, mock := newMockConn(t, Config{})
	ctx := context.Background()

	ep := mock.ExpectPrepare("SELECT id, name FROM users WHERE id = ?")
	ep.ExpectQuery().WithArgs(1).WillReturnRows(usersRows().AddRow(int64(1), "Alice"))
	ep.ExpectQuery().WithArgs(2).WillReturnRows(usersRows().AddRow(int64(2), "Bob"))

	s, err := c.Prepare(ctx, "SELECT id, name FROM users WHERE id = :id")
	require.NoError(t, err)

	rows, err := c.FetchAll(ctx, s, map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, []Row{{"id": int64(1), "name": "Alice"}}, rows)

	// the statement stays usable after a shorthand call
	col, err := c.FetchColumn(ctx, s, map[string]any{"id": 2})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2)}, col)
	assert.NotNil(t, s.handle)
	assert.Equal(t, 2, s.ExecCount())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_FetchRowShorthand(t *testing.T) {
	c, mock := newMockConn(t, Config{})
	ctx := context.Background()

	mock.ExpectPrepare("SELECT id, name FROM users WHERE id = ?").
		ExpectQuery().WithArgs(9).
		WillReturnRows(usersRows())

	row, err := c.FetchRow(ctx, "SELECT id, name FROM users WHERE id = ?", 9)
	require.NoError(t, err)
	assert.Equal(t, Row{}, row)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_PrepareErrorIsConnectionError(t *testing.T) {
	c, mock := newMockConn(t, Config{})
	ctx := context.Background()

	driverErr := &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}
	mock.ExpectPrepare("SELEC * FROM users WHERE id = ?").WillReturnError(driverErr)

	s, err := c.Prepare(ctx, "SELEC * FROM users WHERE id = :id")
	assert.Nil(t, s)

	var ce *ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "prepare", ce.Op)
	assert.Equal(t, "SELEC * FROM users WHERE id = ?", ce.Query)
	assert.Equal(t, 1064, ce.Code)
	assert.ErrorIs(t, err, driverErr)

	var se *StatementError
	assert.False(t, errors.As(err, &se))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_ShorthandPropagatesPrepareError(t *testing.T) {
	c, mock := newMockConn(t, Config{})
	mock.ExpectPrepare("SELECT nope").WillReturnError(errors.New("bad"))

	_, err := c.FetchAll(context.Background(), "SELECT nope")
	var ce *ConnectionError
	require.True(t, errors.As(err, &ce))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_ExecuteFailureClosesOwnedStmt(t *testing.T) {
	c, mock := newMockConn(t, Config{})
	ctx := context.Background()

	mock.ExpectPrepare("DELETE FROM users WHERE id = ?").
		WillBeClosed().
		ExpectExec().WithArgs(1).WillReturnError(&mysqlErr1451)

	s, err := c.Execute(ctx, "DELETE FROM users WHERE id = :id", map[string]any{"id": 1})
	require.Error(t, err)
	assert.Nil(t, s)

	var se *StatementError
	require.True(t, errors.As(err, &se))
	require.NotNil(t, se.Stmt)
	assert.Equal(t, "DELETE FROM users WHERE id = 1", se.Stmt.String())
	_, err = se.Stmt.Execute(ctx)
	assert.ErrorIs(t, err, ErrStmtClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_RejectsOtherQueryTypes(t *testing.T) {
	c, _ := newMockConn(t, Config{})
	_, err := c.FetchAll(context.Background(), 42)
	assert.Error(t, err)

	var nilStmt *Stmt
	_, err = c.Execute(context.Background(), nilStmt)
	assert.Error(t, err)
}

func TestConn_PrepareWithBadArgs(t *testing.T) {
	c, mock := newMockConn(t, Config{})
	mock.ExpectPrepare("SELECT * FROM t WHERE a = ?").WillBeClosed()

	s, err := c.Prepare(context.Background(), "SELECT * FROM t WHERE a = :a", map[string]any{"b": 1})
	assert.Nil(t, s)
	assert.True(t, IsBindMismatch(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_NilHandle(t *testing.T) {
	var c *Conn
	_, err := c.Prepare(context.Background(), "SELECT 1")
	var ce *ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.NoError(t, c.Close())
}

func TestConn_LatestBeforeAnyExecution(t *testing.T) {
	c, _ := newMockConn(t, Config{})
	assert.Nil(t, c.LatestStmt())
	assert.Zero(t, c.LastInsertID())
	assert.Zero(t, c.AffectedRows())
}

func TestConn_CloseReturnsConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := NewDB(db, Config{})
	require.NoError(t, d.WithConn(context.Background(), func(c *Conn) error {
		assert.NotNil(t, c.closer)
		return nil
	}))
	assert.Equal(t, 0, db.Stats().InUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

package ygggo_mysqlx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnsRows(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", true},
		{"  select id FROM t", true},
		{"(SELECT 1) UNION (SELECT 2)", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"SHOW TABLES", true},
		{"/* hint */ SELECT id FROM users", true},
		{"/*+ MAX_EXECUTION_TIME(100) */SELECT 1", true},
		{"-- report\nSELECT 1", true},
		{"# report\n/* a */ /* b */\n  SELECT 1", true},
		{"/* purge */ DELETE FROM users", false},
		{"INSERT INTO t VALUES (1)", false},
		{"/* never closed SELECT 1", false},
		{"-- only a comment", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, returnsRows(tc.query), "%q", tc.query)
	}
}

func TestStmt_CommentedSelectFetchesRows(t *testing.T) {
	c, mock := newMockConn(t, Config{})
	ctx := context.Background()

	mock.ExpectPrepare("/* hint */ SELECT id, name FROM users WHERE id = ?").
		ExpectQuery().WithArgs(1).
		WillReturnRows(usersRows().AddRow(int64(1), "Alice"))

	s, err := c.Prepare(ctx, "/* hint */ SELECT id, name FROM users WHERE id = :id")
	require.NoError(t, err)

	rows, err := s.FetchAll(ctx, map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, []Row{{"id": int64(1), "name": "Alice"}}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

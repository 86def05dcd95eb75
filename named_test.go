package ygggo_mysqlx

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateNamed_PositionalIsIdentity(t *testing.T) {
	queries := []string{
		"SELECT 1",
		"SELECT * FROM t WHERE a = ? AND b = ?",
		"INSERT INTO t (a, b) VALUES (?, ?)",
		"",
	}
	for _, q := range queries {
		got, names := translateNamed(q)
		assert.Equal(t, q, got)
		assert.Empty(t, names)
	}
}

func TestTranslateNamed_ReplacesInOrderWithDuplicates(t *testing.T) {
	got, names := translateNamed("SELECT * FROM t WHERE a = :a OR b = :b_2 OR a2 = :a")
	assert.Equal(t, "SELECT * FROM t WHERE a = ? OR b = ? OR a2 = ?", got)
	assert.Equal(t, []string{"a", "b_2", "a"}, names)
	assert.Equal(t, len(names), strings.Count(got, "?"))
}

func TestTranslateNamed_MarkersReconstructNames(t *testing.T) {
	raw := "UPDATE t SET x=:x, y=:Y9 WHERE id=:id AND x<>:x"
	got, names := translateNamed(raw)

	// substituting the names back, left to right, restores the raw query
	var b strings.Builder
	n := 0
	for i := 0; i < len(got); i++ {
		if got[i] == '?' {
			b.WriteString(":" + names[n])
			n++
			continue
		}
		b.WriteByte(got[i])
	}
	assert.Equal(t, raw, b.String())
}

func TestTranslateNamed_IgnoresQuoting(t *testing.T) {
	got, names := translateNamed("SELECT ':lit' FROM t WHERE a = :a")
	assert.Equal(t, "SELECT '?' FROM t WHERE a = ?", got)
	assert.Equal(t, []string{"lit", "a"}, names)
}

func TestTranslateNamed_LoneColon(t *testing.T) {
	got, names := translateNamed("SELECT a : b, :- FROM t")
	assert.Equal(t, "SELECT a : b, :- FROM t", got)
	assert.Empty(t, names)
}

type userID int64

type ratio float32

func (id userID) String() string { return fmt.Sprintf("user-%d", int64(id)) }

func TestInferType(t *testing.T) {
	var nilPtr *int
	seven := 7
	cases := []struct {
		in   any
		want ParamType
	}{
		{1, TypeInt},
		{int8(1), TypeInt},
		{uint64(1), TypeInt},
		{1.5, TypeDouble},
		{float32(1.5), TypeDouble},
		{"abc", TypeString},
		{true, TypeString},
		{nil, TypeString},
		{[]byte("x"), TypeString},
		{time.Now(), TypeString},
		{&seven, TypeInt},
		{nilPtr, TypeString},
		{sql.NullInt64{Int64: 3, Valid: true}, TypeInt},
		{sql.NullFloat64{Float64: 3, Valid: true}, TypeDouble},
		{sql.NullInt64{}, TypeString},
		{userID(5), TypeInt},
		{ratio(0.5), TypeDouble},
		{uintptr(9), TypeInt},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InferType(tc.in), "InferType(%#v)", tc.in)
	}
}

func TestCollectValues_Modes(t *testing.T) {
	vs, err := collectValues([]any{1, "a"})
	require.NoError(t, err)
	assert.False(t, vs.isNamed)
	assert.Equal(t, []any{1, "a"}, vs.positional)

	vs, err = collectValues([]any{[]any{1, "a"}})
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a"}, vs.positional)

	vs, err = collectValues([]any{[]int{4, 8, 15}})
	require.NoError(t, err)
	assert.Equal(t, []any{4, 8, 15}, vs.positional)

	vs, err = collectValues([]any{[]byte("blob")})
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte("blob")}, vs.positional)

	vs, err = collectValues([]any{map[string]any{"id": 7}})
	require.NoError(t, err)
	assert.True(t, vs.isNamed)
	assert.Equal(t, 7, vs.named["id"])

	vs, err = collectValues([]any{map[string]string{"name": "x"}})
	require.NoError(t, err)
	assert.True(t, vs.isNamed)
	assert.Equal(t, "x", vs.named["name"])

	_, err = collectValues([]any{map[int]any{0: 1}})
	assert.Error(t, err)

	vs, err = collectValues([]any{42})
	require.NoError(t, err)
	assert.Equal(t, []any{42}, vs.positional)
}

func TestCollectValues_SequentialKeysArePositional(t *testing.T) {
	vs, err := collectValues([]any{map[string]any{"1": "b", "0": "a", "2": "c"}})
	require.NoError(t, err)
	assert.False(t, vs.isNamed)
	assert.Equal(t, []any{"a", "b", "c"}, vs.positional)

	// a gap makes it named
	vs, err = collectValues([]any{map[string]any{"0": "a", "2": "c"}})
	require.NoError(t, err)
	assert.True(t, vs.isNamed)

	// "01" is not an index
	vs, err = collectValues([]any{map[string]any{"01": "a"}})
	require.NoError(t, err)
	assert.True(t, vs.isNamed)
}

type user struct {
	ID      int    `db:"id"`
	Name    string `db:"name"`
	Email   string
	Skipped string `db:"-"`
	secret  string
}

func TestCollectValues_Struct(t *testing.T) {
	u := user{ID: 3, Name: "Alice", Email: "a@example.com", Skipped: "x", secret: "y"}
	for _, arg := range []any{u, &u} {
		vs, err := collectValues([]any{arg})
		require.NoError(t, err)
		require.True(t, vs.isNamed)
		assert.Equal(t, 3, vs.named["id"])
		assert.Equal(t, "Alice", vs.named["name"])
		assert.Equal(t, "a@example.com", vs.named["email"])
		assert.NotContains(t, vs.named, "skipped")
		assert.NotContains(t, vs.named, "secret")
	}
}

func TestBindValues_NamedFollowsPlaceholderOrder(t *testing.T) {
	_, names := translateNamed("SELECT * FROM t WHERE a = :a AND b = :b AND c = :a")
	vs, err := collectValues([]any{map[string]any{"b": 2.5, "a": 1, "unused": "x"}})
	require.NoError(t, err)

	values, types, missing := bindValues(vs, names, false)
	assert.Empty(t, missing)
	assert.Equal(t, []any{1, 2.5, 1}, values)
	assert.Equal(t, []ParamType{TypeInt, TypeDouble, TypeInt}, types)
}

func TestBindValues_MissingName(t *testing.T) {
	names := []string{"a", "b"}
	vs, err := collectValues([]any{map[string]any{"a": 1}})
	require.NoError(t, err)

	_, _, missing := bindValues(vs, names, false)
	assert.Equal(t, "b", missing)

	values, types, missing := bindValues(vs, names, true)
	assert.Empty(t, missing)
	assert.Equal(t, []any{1}, values)
	assert.Equal(t, []ParamType{TypeInt}, types)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?,?,?", Placeholders([]int{0, 22, 99}))
	assert.Equal(t, "?", Placeholders([]string{"x"}))
	assert.Equal(t, "", Placeholders([]any{}))
	assert.Equal(t, "", Placeholders[int](nil))
}

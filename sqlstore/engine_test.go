package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	e, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestExecuteCreateAndInsert(t *testing.T) {
	e := newTestEngine(t)

	resp, err := e.Execute(Request{Statements: []Statement{
		{SQL: "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)"},
	}})
	require.NoError(t, err)
	require.Len(t, resp, 1)
	require.Empty(t, resp[0].Error)

	name := "alice"
	resp, err = e.Execute(Request{Statements: []Statement{
		{SQL: "INSERT INTO t (name) VALUES (?)", Parameters: []Parameter{{Text: &name}}},
	}})
	require.NoError(t, err)
	require.Equal(t, int64(1), resp[0].LastInsertID)
	require.Equal(t, int64(1), resp[0].RowsAffected)
}

func TestQueryReturnsInsertedRow(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Execute(Request{Statements: []Statement{
		{SQL: "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)"},
	}})
	require.NoError(t, err)

	name := "bob"
	_, err = e.Execute(Request{Statements: []Statement{
		{SQL: "INSERT INTO t (name) VALUES (?)", Parameters: []Parameter{{Text: &name}}},
	}})
	require.NoError(t, err)

	rows, err := e.Query(Request{Statements: []Statement{
		{SQL: "SELECT id, name FROM t"},
	}})
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, rows.Columns)
	require.Len(t, rows.Values, 1)
	require.Equal(t, "bob", rows.Values[0][1])
}

func TestExecuteTransactionRollsBackOnError(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Execute(Request{Statements: []Statement{
		{SQL: "CREATE TABLE t (id INTEGER PRIMARY KEY)"},
	}})
	require.NoError(t, err)

	resp, err := e.Execute(Request{
		Transaction: true,
		Statements: []Statement{
			{SQL: "INSERT INTO t (id) VALUES (1)"},
			{SQL: "INSERT INTO nonexistent_table (id) VALUES (1)"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp[0].Error)
	require.NotEmpty(t, resp[1].Error)

	rows, err := e.Query(Request{Statements: []Statement{{SQL: "SELECT id FROM t"}}})
	require.NoError(t, err)
	require.Len(t, rows.Values, 0)
}

func TestApplyDecodesAndExecutes(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Execute(Request{Statements: []Statement{
		{SQL: "CREATE TABLE t (id INTEGER PRIMARY KEY)"},
	}})
	require.NoError(t, err)

	payload, err := EncodeRequest(Request{Statements: []Statement{
		{SQL: "INSERT INTO t (id) VALUES (42)"},
	}})
	require.NoError(t, err)

	require.NoError(t, e.Apply(payload))

	rows, err := e.Query(Request{Statements: []Statement{{SQL: "SELECT id FROM t"}}})
	require.NoError(t, err)
	require.Len(t, rows.Values, 1)
}

func TestExecuteEmptyStatementReportsError(t *testing.T) {
	e := newTestEngine(t)
	resp, err := e.Execute(Request{Statements: []Statement{{SQL: ""}}})
	require.NoError(t, err)
	require.Equal(t, ErrEmptyStatement.Error(), resp[0].Error)
}

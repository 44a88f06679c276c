package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumdb/quorumdb/sqlstore"
	"github.com/quorumdb/quorumdb/status"
)

// mockEngine implements both QueryEngine and the unexported executor
// interface handlers.execute type-asserts for, mirroring how a real
// sqlstore.Engine serves both reads and the post-commit re-execute.
type mockEngine struct {
	execResponses []sqlstore.Response
	queryRows     sqlstore.Rows
}

func (m *mockEngine) Execute(req sqlstore.Request) ([]sqlstore.Response, error) {
	return m.execResponses, nil
}

func (m *mockEngine) Query(req sqlstore.Request) (sqlstore.Rows, error) {
	return m.queryRows, nil
}

type mockControl struct {
	isLeader bool
	leaderID uint64
	proposeErr error
}

func (m *mockControl) Propose(ctx context.Context, payload []byte) error { return m.proposeErr }
func (m *mockControl) Join(ctx context.Context, nodeID uint64, addr string) error { return m.proposeErr }
func (m *mockControl) Remove(ctx context.Context, nodeID uint64) error { return m.proposeErr }
func (m *mockControl) LeaderID() (uint64, bool) { return m.leaderID, m.leaderID != 0 }
func (m *mockControl) IsLeader() bool { return m.isLeader }

type mockStatus struct{}

func (mockStatus) Report() (status.Info, error) { return status.Info{}, nil }

func TestPing(t *testing.T) {
	s := NewServer(&mockEngine{}, &mockControl{isLeader: true}, mockStatus{})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pong", rec.Body.String())
}

func TestUnknownRouteIs404(t *testing.T) {
	s := NewServer(&mockEngine{}, &mockControl{isLeader: true}, mockStatus{})
	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteAsLeaderReturnsResponses(t *testing.T) {
	engine := &mockEngine{execResponses: []sqlstore.Response{
		{LastInsertID: 1, RowsAffected: 1},
		{LastInsertID: 2, RowsAffected: 1},
	}}
	s := NewServer(engine, &mockControl{isLeader: true}, mockStatus{})

	body := `{"statements":[{"sql":"INSERT INTO t VALUES (1)"},{"sql":"INSERT INTO t VALUES (2)"}]}`
	req := httptest.NewRequest(http.MethodPost, "/db/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []sqlstore.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, engine.execResponses, got)
	require.JSONEq(t, `[{"last_insert_id":1,"rows_affected":1},{"last_insert_id":2,"rows_affected":1}]`, rec.Body.String())
}

func TestExecuteNotLeaderReturns409WithLeaderID(t *testing.T) {
	s := NewServer(&mockEngine{}, &mockControl{isLeader: false, leaderID: 3}, mockStatus{})

	body := `{"statements":[{"sql":"INSERT INTO t VALUES (1)"}]}`
	req := httptest.NewRequest(http.MethodPost, "/db/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"leader_id":3}`, rec.Body.String())
}

func TestExecuteMalformedBodyReturns400(t *testing.T) {
	s := NewServer(&mockEngine{}, &mockControl{isLeader: true}, mockStatus{})

	req := httptest.NewRequest(http.MethodPost, "/db/execute", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryReturnsRows(t *testing.T) {
	engine := &mockEngine{queryRows: sqlstore.Rows{Columns: []string{"id"}, Values: [][]interface{}{{int64(1)}}}}
	s := NewServer(engine, &mockControl{isLeader: true}, mockStatus{})

	body := `{"statements":[{"sql":"SELECT id FROM t"}]}`
	req := httptest.NewRequest(http.MethodPost, "/db/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rows sqlstore.Rows
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Equal(t, []string{"id"}, rows.Columns)
}

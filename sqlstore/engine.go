package sqlstore

import (
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ngaut/log"
)

// Engine wraps one node's private SQLite database: the state machine a
// committed raft entry's opaque payload is replayed against, and the local
// read path for queries that never need to go through raft.
type Engine struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite file at path. An empty
// path opens a private in-memory database, as the tests do.
func Open(path string) (*Engine, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, wrap("sqlstore: open", err)
	}
	// SQLite only supports one writer at a time; since every write on this
	// connection is already serialized through raft commit order, a single
	// pooled connection avoids SQLITE_BUSY without needing WAL/busy-timeout
	// tuning.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, wrap("sqlstore: enable foreign keys", err)
	}
	return &Engine{db: db}, nil
}

// Close releases the underlying SQLite connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Execute runs req's statements against the database, in order, and
// returns one Response per statement. A single failing statement does not
// abort the batch unless Transaction is set, in which case the whole batch
// rolls back and every Response reports the same error.
func (e *Engine) Execute(req Request) ([]Response, error) {
	if req.Transaction {
		return e.executeTransaction(req)
	}
	responses := make([]Response, 0, len(req.Statements))
	for _, stmt := range req.Statements {
		responses = append(responses, e.executeOne(e.db, stmt))
	}
	return responses, nil
}

func (e *Engine) executeTransaction(req Request) ([]Response, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, wrap("sqlstore: begin transaction", err)
	}
	responses := make([]Response, 0, len(req.Statements))
	for _, stmt := range req.Statements {
		resp := e.executeOne(tx, stmt)
		responses = append(responses, resp)
		if resp.Error != "" {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf("sqlstore: rollback failed: %v", rbErr)
			}
			responses = make([]Response, len(req.Statements))
			for i := range responses {
				responses[i] = Response{Error: resp.Error}
			}
			return responses, nil
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, wrap("sqlstore: commit transaction", err)
	}
	return responses, nil
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (e *Engine) executeOne(ex execer, stmt Statement) Response {
	if stmt.SQL == "" {
		return Response{Error: ErrEmptyStatement.Error()}
	}
	args := make([]interface{}, len(stmt.Parameters))
	for i, p := range stmt.Parameters {
		args[i] = p.Value()
	}
	result, err := ex.Exec(stmt.SQL, args...)
	if err != nil {
		return Response{Error: err.Error()}
	}
	lastID, _ := result.LastInsertId()
	affected, _ := result.RowsAffected()
	return Response{LastInsertID: lastID, RowsAffected: affected}
}

// Query runs req's statements read-only and returns the rows of the last
// one. Queries never go through raft: a caller only ever sees its own
// node's most recently applied state, which is the read-your-own-writes
// guarantee this design settles for instead of cluster-wide linearizable
// reads.
func (e *Engine) Query(req Request) (Rows, error) {
	var rows Rows
	for _, stmt := range req.Statements {
		if stmt.SQL == "" {
			continue
		}
		args := make([]interface{}, len(stmt.Parameters))
		for i, p := range stmt.Parameters {
			args[i] = p.Value()
		}
		r, err := e.queryOne(stmt.SQL, args)
		if err != nil {
			return Rows{}, err
		}
		rows = r
	}
	return rows, nil
}

func (e *Engine) queryOne(query string, args []interface{}) (Rows, error) {
	sqlRows, err := e.db.Query(query, args...)
	if err != nil {
		return Rows{}, wrap("sqlstore: query", err)
	}
	defer sqlRows.Close()

	columns, err := sqlRows.Columns()
	if err != nil {
		return Rows{}, wrap("sqlstore: columns", err)
	}
	colTypes, err := sqlRows.ColumnTypes()
	if err != nil {
		return Rows{}, wrap("sqlstore: column types", err)
	}

	result := Rows{
		Columns: columns,
		Types:   make([]DataType, len(columns)),
	}
	for i, ct := range colTypes {
		result.Types[i] = dataTypeOf(ct.DatabaseTypeName())
	}

	for sqlRows.Next() {
		dest := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := sqlRows.Scan(ptrs...); err != nil {
			return Rows{}, wrap("sqlstore: scan", err)
		}
		result.Values = append(result.Values, dest)
	}
	if err := sqlRows.Err(); err != nil {
		return Rows{}, wrap("sqlstore: rows", err)
	}
	return result, nil
}

func dataTypeOf(name string) DataType {
	switch name {
	case "INTEGER", "INT":
		return TypeInteger
	case "REAL", "FLOAT", "DOUBLE":
		return TypeReal
	case "TEXT", "VARCHAR", "CHAR":
		return TypeText
	case "BLOB":
		return TypeBlob
	default:
		return TypeNull
	}
}

// Apply decodes payload as a JSON-encoded Request and executes it,
// discarding the per-statement Responses: a committed entry's job is to
// mutate the state machine deterministically on every peer, not to
// deliver a result back to whichever peer happens to be applying it (the
// client that proposed it already got its ack via the Proposal channel).
func (e *Engine) Apply(payload []byte) error {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return wrap("sqlstore: decode applied payload", err)
	}
	_, err := e.Execute(req)
	return err
}

// EncodeRequest is the inverse of Apply's decode step: it is how the HTTP
// front end turns a client's Request into the opaque payload a normal
// Proposal carries.
func EncodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}

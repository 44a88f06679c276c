// Package sqlstore is the Database collaborator: an embedded, per-node SQL
// engine sitting behind the opaque payload a raft entry carries. It knows
// nothing about replication — PeerFsm hands it committed payloads through
// ApplyFunc, and the HTTP front end calls it directly for read-only
// queries and to build the payload a write proposal carries.
package sqlstore

// DataType mirrors the handful of SQLite storage classes a driver-level
// query result can report per column.
type DataType int

const (
	TypeNull DataType = iota
	TypeInteger
	TypeReal
	TypeText
	TypeBlob
)

func (t DataType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeReal:
		return "real"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	default:
		return "null"
	}
}

// Parameter is exactly one of Integer/Real/Text/Blob; all nil means SQL
// NULL. Statement.Parameters binds these positionally against "?"
// placeholders, the sqlite3 driver convention.
type Parameter struct {
	Integer *int64
	Real    *float64
	Text    *string
	Blob    []byte
}

// Value returns the parameter's concrete value for passing to
// database/sql, or nil for SQL NULL.
func (p Parameter) Value() interface{} {
	switch {
	case p.Integer != nil:
		return *p.Integer
	case p.Real != nil:
		return *p.Real
	case p.Text != nil:
		return *p.Text
	case p.Blob != nil:
		return p.Blob
	default:
		return nil
	}
}

// Statement is a single SQL statement plus its positional parameters.
type Statement struct {
	SQL        string      `json:"sql"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Request is a batch of statements submitted together, optionally wrapped
// in a single SQLite transaction.
type Request struct {
	Transaction bool        `json:"transaction,omitempty"`
	Statements  []Statement `json:"statements"`
}

// Response reports the outcome of one statement from an Execute batch.
// Fields are omitted from JSON when zero/empty, matching the wire
// convention the external command-and-response contract this collaborator
// implements has always used.
type Response struct {
	LastInsertID int64  `json:"last_insert_id,omitempty"`
	RowsAffected int64  `json:"rows_affected,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Rows is the result of a read-only Query.
type Rows struct {
	Columns []string       `json:"columns"`
	Types   []DataType     `json:"types"`
	Values  [][]interface{} `json:"values"`
}

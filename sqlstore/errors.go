package sqlstore

import "github.com/juju/errors"

// ErrEmptyStatement is returned (as a per-statement Response.Error, not a
// batch-aborting error) when a Statement's SQL text is blank.
var ErrEmptyStatement = errors.New("sqlstore: empty statement")

// wrap annotates err with op, preserving the underlying SQLite driver
// error text so a client reading Response.Error can see exactly why its
// statement failed.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Annotate(err, op)
}

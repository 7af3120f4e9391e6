// db serves as an interface for the database where raw SQL goes in and
// convenient data structures come out. db is intended to be consumed by
// things like a repl (read eval print loop), a program, or a transport
// protocol.
package db

import "github.com/jamishoo-go/oursqlgo/internal/executor"

// DB wraps one executor.Engine, the single entry point a repl or driver
// calls Execute on.
type DB struct {
	engine *executor.Engine
}

// New returns a DB rooted at dir; dir holds one subdirectory per database
// (spec.md §6).
func New(dir string) (*DB, error) {
	e, err := executor.New(dir)
	if err != nil {
		return nil, err
	}
	return &DB{engine: e}, nil
}

// Execute runs every statement in sql in order, stopping at the first
// error, and returns each statement's Result.
func (db *DB) Execute(sql string) []executor.Result {
	return db.engine.ExecuteSQL(sql)
}

// Close flushes and closes whichever database is currently in use.
func (db *DB) Close() error {
	return db.engine.Close()
}

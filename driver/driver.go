// Package driver enables oursqlgo to be used with the go database/sql
// package.
package driver

// TODO
// - Question what the prepare step should do.
// - Think about making database return typed response instead of all strings.
// - Implement and test half finished methods.
// - Consider context methods.

import (
	"database/sql"
	"database/sql/driver"
	"io"

	"github.com/jamishoo-go/oursqlgo/db"
	"github.com/jamishoo-go/oursqlgo/internal/executor"
)

func init() {
	d := new()
	sql.Register("oursqlgo", d)
}

func new() *sqlDriver {
	return &sqlDriver{}
}

type sqlDriver struct{}

// Open implements driver.Driver. Name is the directory under which every
// database lives (spec.md §6's database root).
func (sd *sqlDriver) Open(name string) (driver.Conn, error) {
	d, err := db.New(name)
	if err != nil {
		return nil, err
	}
	return &sqlConn{db: d}, nil
}

type sqlConn struct {
	db *db.DB
}

// Begin implements driver.Conn.
func (c *sqlConn) Begin() (driver.Tx, error) {
	panic("transactions not implemented")
}

// Close implements driver.Conn.
func (c *sqlConn) Close() error {
	return c.db.Close()
}

// Prepare implements driver.Conn.
func (c *sqlConn) Prepare(query string) (driver.Stmt, error) {
	return &sqlStmt{db: c.db, query: query}, nil
}

type sqlStmt struct {
	db    *db.DB
	query string
}

// Close implements driver.Stmt.
func (s *sqlStmt) Close() error {
	return nil
}

// lastResult runs the statement(s) and returns the final Result, since
// database/sql only wants the outcome of the prepared query itself.
func (s *sqlStmt) lastResult() (executor.Result, error) {
	results := s.db.Execute(s.query)
	if len(results) == 0 {
		return executor.Result{}, nil
	}
	last := results[len(results)-1]
	if last.Err != nil {
		return executor.Result{}, last.Err
	}
	return last, nil
}

// Exec implements driver.Stmt.
func (s *sqlStmt) Exec(args []driver.Value) (driver.Result, error) {
	if _, err := s.lastResult(); err != nil {
		return nil, err
	}
	return &sqlResult{}, nil
}

// NumInput implements driver.Stmt.
func (s *sqlStmt) NumInput() int {
	return 0
}

// Query implements driver.Stmt.
func (s *sqlStmt) Query(args []driver.Value) (driver.Rows, error) {
	res, err := s.lastResult()
	if err != nil {
		return nil, err
	}
	return &sqlRows{cols: res.Header, rows: res.Rows}, nil
}

type sqlResult struct{}

// LastInsertId implements driver.Result.
func (r *sqlResult) LastInsertId() (int64, error) {
	return 0, nil
}

// RowsAffected implements driver.Result.
func (r *sqlResult) RowsAffected() (int64, error) {
	return 0, nil
}

type sqlRows struct {
	cols   []string
	rows   [][]*string
	rowIdx int
}

// Close implements driver.Rows.
func (r *sqlRows) Close() error {
	return nil
}

// Columns implements driver.Rows.
func (r *sqlRows) Columns() []string {
	return r.cols
}

// Next implements driver.Rows.
func (r *sqlRows) Next(dest []driver.Value) error {
	if r.rowIdx == len(r.rows) {
		return io.EOF
	}
	for i, v := range r.rows[r.rowIdx] {
		if v == nil {
			dest[i] = nil
		} else {
			dest[i] = *v
		}
	}
	r.rowIdx++
	return nil
}

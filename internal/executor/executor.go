// Package executor runs a parsed compiler.Stmt against the catalog,
// table and index managers, implementing spec.md §4.6's statement
// dispatch, condition evaluation, sargable selection, join, group,
// aggregate, sort, and constraint enforcement.
//
// Grounded on the teacher's db.DB (the single entry point a repl/driver
// calls Execute on) and vm.ExecutionPlan/ExecuteResult (the shape of a
// statement's outcome), generalized from "compile to a byte-code plan,
// run the plan" to directly walking the AST, since this engine has no
// separate planner/VM stage (see DESIGN.md).
package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamishoo-go/oursqlgo/compiler"
	"github.com/jamishoo-go/oursqlgo/internal/catalog"
	"github.com/jamishoo-go/oursqlgo/internal/dberrors"
)

// Engine owns the currently open database (if any) and the root
// directory under which every database is one subdirectory, mirroring
// spec.md §6's "working directory is the database root".
type Engine struct {
	root    string
	cur     *catalog.Catalog
	curName string
}

// New returns an Engine rooted at dir, creating dir if it does not exist.
func New(dir string) (*Engine, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Engine{root: dir}, nil
}

// Result is the uniform outcome of one statement: either an error, a
// plain status line, or a row set with headers.
type Result struct {
	Err    error
	Text   string
	Header []string
	Rows   [][]*string
}

func errResult(err error) Result { return Result{Err: err} }

func (e *Engine) dbPath(name string) string {
	return filepath.Join(e.root, name)
}

// requireOpen returns dberrors.KindDBNotOpened if no database is active.
func (e *Engine) requireOpen() error {
	if e.cur == nil {
		return dberrors.New(dberrors.KindDBNotOpened, nil)
	}
	return nil
}

// Close flushes and closes the active database, if any.
func (e *Engine) Close() error {
	if e.cur == nil {
		return nil
	}
	return e.cur.CloseAll()
}

// stripComments removes '#'-to-end-of-line comments outside single-quoted
// strings (spec.md §6's wire format), leaving the newline in place so line
// numbers a later error message might reference stay accurate.
func stripComments(src string) string {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inQuote {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				i++
				b.WriteByte(src[i])
				continue
			}
			if c == '\'' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '\'':
			inQuote = true
			b.WriteByte(c)
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ExecuteSQL parses and runs every statement in src in order, stopping at
// the first error.
func (e *Engine) ExecuteSQL(src string) []Result {
	stmts, err := compiler.Parse(stripComments(src))
	if err != nil {
		return []Result{errResult(dberrors.Wrap(dberrors.KindParseFailed, err, nil))}
	}
	results := make([]Result, 0, len(stmts))
	for _, s := range stmts {
		r := e.Execute(s)
		results = append(results, r)
		if r.Err != nil {
			break
		}
	}
	return results
}

// Execute runs one already-parsed statement.
func (e *Engine) Execute(stmt compiler.Stmt) Result {
	switch s := stmt.(type) {
	case *compiler.CreateDatabaseStmt:
		return e.createDatabase(s)
	case *compiler.DropDatabaseStmt:
		return e.dropDatabase(s)
	case *compiler.UseDatabaseStmt:
		return e.useDatabase(s)
	case *compiler.ShowDatabasesStmt:
		return e.showDatabases()
	case *compiler.CreateTableStmt:
		return e.createTable(s)
	case *compiler.DropTableStmt:
		return e.dropTable(s)
	case *compiler.ShowTablesStmt:
		return e.showTables()
	case *compiler.DescTableStmt:
		return e.descTable(s)
	case *compiler.CreateIndexStmt:
		return e.createIndex(s)
	case *compiler.DropIndexStmt:
		return e.dropIndex(s)
	case *compiler.InsertStmt:
		return e.insert(s)
	case *compiler.SelectStmt:
		return e.selectStmt(s)
	case *compiler.DeleteStmt:
		return e.deleteStmt(s)
	case *compiler.UpdateStmt:
		return e.updateStmt(s)
	}
	return errResult(fmt.Errorf("executor: unsupported statement %T", stmt))
}

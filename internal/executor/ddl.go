package executor

import (
	"github.com/jamishoo-go/oursqlgo/compiler"
	"github.com/jamishoo-go/oursqlgo/internal/catalog"
	"github.com/jamishoo-go/oursqlgo/internal/dberrors"
	"github.com/jamishoo-go/oursqlgo/internal/field"
)

func (e *Engine) createDatabase(s *compiler.CreateDatabaseStmt) Result {
	if err := catalog.CreateDatabase(e.dbPath(s.Name)); err != nil {
		return errResult(err)
	}
	return Result{Text: "Database created."}
}

// dropDatabase closes the database first if it is the one currently in
// use, since its open table.Manager handles hold file descriptors into
// the directory about to be removed.
func (e *Engine) dropDatabase(s *compiler.DropDatabaseStmt) Result {
	if e.curName == s.Name {
		if err := e.Close(); err != nil {
			return errResult(err)
		}
		e.cur = nil
		e.curName = ""
	}
	if err := catalog.DropDatabase(e.dbPath(s.Name)); err != nil {
		return errResult(err)
	}
	return Result{Text: "Database dropped."}
}

func (e *Engine) useDatabase(s *compiler.UseDatabaseStmt) Result {
	if e.cur != nil {
		if err := e.cur.CloseAll(); err != nil {
			return errResult(err)
		}
	}
	c, err := catalog.Open(e.dbPath(s.Name))
	if err != nil {
		return errResult(err)
	}
	e.cur = c
	e.curName = s.Name
	return Result{Text: "Database changed."}
}

func (e *Engine) showDatabases() Result {
	names, err := catalog.ListDatabases(e.root)
	if err != nil {
		return errResult(err)
	}
	rows := make([][]*string, len(names))
	for i, n := range names {
		rows[i] = []*string{&names[i]}
		_ = n
	}
	return Result{Header: []string{"database"}, Rows: rows}
}

// createTable builds the FieldSchema list from the parsed column
// definitions, synthesizing a hidden primary key field when no column
// declares one (spec.md §4.3's "a hidden 9-byte auto-key").
func (e *Engine) createTable(s *compiler.CreateTableStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}

	var fields []catalog.FieldSchema
	declaredPK := ""
	var id uint64 = 1
	for _, col := range s.Columns {
		t, ok := field.ParseTypeName(col.Type)
		if !ok {
			return errResult(dberrors.Wrap(dberrors.KindCreateTableFailed,
				dberrors.New(dberrors.KindUnsupportedType, func(ex *dberrors.Error) { ex.Got = col.Type }),
				func(ex *dberrors.Error) { ex.Table = s.Name }))
		}
		length := col.Length
		if t.IsString() && length == 0 {
			return errResult(dberrors.Wrap(dberrors.KindCreateTableFailed,
				dberrors.New(dberrors.KindFieldLengthRequired, func(ex *dberrors.Error) { ex.Field = col.Name }),
				func(ex *dberrors.Error) { ex.Table = s.Name }))
		}
		encLen := length + 1
		if !t.IsString() {
			n, err := field.NativeSize(t)
			if err != nil {
				return errResult(err)
			}
			encLen = uint64(n) + 1
		}
		if col.PrimaryKey {
			if declaredPK != "" {
				return errResult(dberrors.New(dberrors.KindInvalidPrimaryKey, func(ex *dberrors.Error) { ex.Field = col.Name }))
			}
			declaredPK = col.Name
		}
		fields = append(fields, catalog.FieldSchema{
			ID: id, Name: col.Name, Type: col.Type, Length: encLen,
			PK: col.PrimaryKey, NotNull: col.NotNull || col.PrimaryKey,
		})
		id++
	}
	if declaredPK == "" {
		fields = append(fields, catalog.FieldSchema{
			ID: id, Name: "__rowid__", Type: field.TypeName(field.TypeU64), Length: 9, PK: true, NotNull: true,
		})
	}

	var fks []catalog.ForeignKey
	for _, fk := range s.ForeignKeys {
		fks = append(fks, catalog.ForeignKey{Field: fk.Field, RefTable: fk.RefTable, RefField: fk.RefField})
	}
	for _, chk := range s.Checks {
		if _, err := compiler.ParseConditions(chk); err != nil {
			return errResult(dberrors.Wrap(dberrors.KindCreateTableFailed, err, func(ex *dberrors.Error) { ex.Table = s.Name }))
		}
	}

	if err := e.cur.CreateTable(s.Name, fields, fks, s.Checks); err != nil {
		return errResult(err)
	}
	return Result{Text: "Table created."}
}

func (e *Engine) dropTable(s *compiler.DropTableStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	if err := e.cur.DropTable(s.Name); err != nil {
		return errResult(err)
	}
	return Result{Text: "Table dropped."}
}

func (e *Engine) showTables() Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	names := e.cur.TableNames()
	rows := make([][]*string, len(names))
	for i := range names {
		rows[i] = []*string{&names[i]}
	}
	return Result{Header: []string{"table"}, Rows: rows}
}

func (e *Engine) descTable(s *compiler.DescTableStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	ts, ok := e.cur.Schema(s.Name)
	if !ok {
		return errResult(dberrors.New(dberrors.KindOpenTableFailed, func(ex *dberrors.Error) { ex.Table = s.Name }))
	}
	header := []string{"field", "type", "null", "key", "indexed"}
	rows := make([][]*string, len(ts.Fields))
	for i, f := range ts.Fields {
		name, typ := f.Name, f.Type
		null, key, idx := "YES", "", "NO"
		if f.NotNull {
			null = "NO"
		}
		if f.PK {
			key = "PRI"
		}
		if f.Indexed {
			idx = "YES"
		}
		rows[i] = []*string{&name, &typ, &null, &key, &idx}
	}
	return Result{Header: header, Rows: rows}
}

func (e *Engine) createIndex(s *compiler.CreateIndexStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	if err := e.cur.CreateIndex(s.Table, s.Field); err != nil {
		return errResult(err)
	}
	return Result{Text: "Index created."}
}

func (e *Engine) dropIndex(s *compiler.DropIndexStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	if err := e.cur.DropIndex(s.Table, s.Field); err != nil {
		return errResult(err)
	}
	return Result{Text: "Index dropped."}
}

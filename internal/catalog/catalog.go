// Package catalog owns a database directory's schema: the set of tables,
// their fields, primary keys, foreign keys, check constraints, and which
// fields carry an index. It keeps a small cache of open table.Manager
// values (spec.md §4.5's tables_inuse) so repeated statements against the
// same table reuse one open file and buffer cache instead of reopening it.
//
// Grounded on the teacher's catalog/catalog.go (a schema cache rebuilt
// from a persisted representation, with a version stamp bumped on every
// change) and kv/catalog.go's JSON encoding of the schema, adapted from a
// single in-file "cdb_schema" table to one schema.json sidecar per
// database directory — see DESIGN.md for why this replaces spec.md's
// separate .refed/.refing/.chk sidecar files.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamishoo-go/oursqlgo/internal/dberrors"
	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/index"
	"github.com/jamishoo-go/oursqlgo/internal/table"
)

const schemaFileName = "schema.json"

// FieldSchema is one column's persisted shape.
type FieldSchema struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Length    uint64 `json:"length"`
	PK        bool   `json:"pk"`
	NotNull   bool   `json:"notNull"`
	Indexed   bool   `json:"indexed"`
}

// ForeignKey is one FOREIGN KEY(field) REFERENCES refTable(refField)
// constraint.
type ForeignKey struct {
	Field    string `json:"field"`
	RefTable string `json:"refTable"`
	RefField string `json:"refField"`
}

// TableSchema is one table's full persisted shape.
type TableSchema struct {
	Name        string       `json:"name"`
	Fields      []FieldSchema `json:"fields"`
	ForeignKeys []ForeignKey `json:"foreignKeys"`
	Checks      []string     `json:"checks"`
}

type schemaFile struct {
	Tables []TableSchema `json:"tables"`
}

// Catalog is one open database directory.
type Catalog struct {
	dir            string
	schema         *schemaFile
	version        string
	versionCounter int
	tables         map[string]*table.Manager
}

func schemaPath(dir string) string {
	return filepath.Join(dir, schemaFileName)
}

// CreateDatabase makes a new, empty database directory.
func CreateDatabase(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return dberrors.New(dberrors.KindPathExisted, nil)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return dberrors.Wrap(dberrors.KindCreateDBFailed, err, func(e *dberrors.Error) { e.Table = filepath.Base(dir) })
	}
	sf := &schemaFile{}
	if err := writeSchema(dir, sf); err != nil {
		os.RemoveAll(dir)
		return dberrors.Wrap(dberrors.KindCreateDBFailed, err, func(e *dberrors.Error) { e.Table = filepath.Base(dir) })
	}
	return nil
}

// DropDatabase removes a database directory and everything in it.
func DropDatabase(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return dberrors.New(dberrors.KindDBNotExists, func(e *dberrors.Error) { e.Table = filepath.Base(dir) })
	}
	if err := os.RemoveAll(dir); err != nil {
		return dberrors.Wrap(dberrors.KindRemoveDBFailed, err, nil)
	}
	return nil
}

// ListDatabases lists the immediate subdirectories of root that look like
// database directories (they carry a schema.json).
func ListDatabases(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(schemaPath(filepath.Join(root, e.Name()))); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func readSchema(dir string) (*schemaFile, error) {
	b, err := os.ReadFile(schemaPath(dir))
	if err != nil {
		return nil, err
	}
	sf := &schemaFile{}
	if err := json.Unmarshal(b, sf); err != nil {
		return nil, err
	}
	return sf, nil
}

func writeSchema(dir string, sf *schemaFile) error {
	b, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(schemaPath(dir), b, 0644)
}

// Open opens an existing database directory's catalog.
func Open(dir string) (*Catalog, error) {
	sf, err := readSchema(dir)
	if err != nil {
		return nil, dberrors.New(dberrors.KindUseDBFailed, func(e *dberrors.Error) { e.Table = filepath.Base(dir) })
	}
	return &Catalog{dir: dir, schema: sf, tables: map[string]*table.Manager{}}, nil
}

func (c *Catalog) persist() error {
	c.bumpVersion()
	return writeSchema(c.dir, c.schema)
}

func (c *Catalog) bumpVersion() {
	c.versionCounter++
	c.version = fmt.Sprintf("v%d", c.versionCounter)
}

// Version returns an opaque string that changes every time the schema is
// mutated, for callers that want to detect "schema changed under me".
func (c *Catalog) Version() string {
	return c.version
}

// Dir returns the catalog's backing directory, for callers building file
// paths (temp tables, CLI messages).
func (c *Catalog) Dir() string {
	return c.dir
}

// TableExists reports whether name is a declared table.
func (c *Catalog) TableExists(name string) bool {
	_, ok := c.find(name)
	return ok
}

// TableNames lists every declared table, in declaration order.
func (c *Catalog) TableNames() []string {
	names := make([]string, len(c.schema.Tables))
	for i, t := range c.schema.Tables {
		names[i] = t.Name
	}
	return names
}

func (c *Catalog) find(name string) (*TableSchema, bool) {
	for i := range c.schema.Tables {
		if c.schema.Tables[i].Name == name {
			return &c.schema.Tables[i], true
		}
	}
	return nil, false
}

// Schema returns the persisted shape of a table, or false if it does not
// exist.
func (c *Catalog) Schema(name string) (TableSchema, bool) {
	ts, ok := c.find(name)
	if !ok {
		return TableSchema{}, false
	}
	return *ts, true
}

// referencedBy returns every (table, field) pair whose FOREIGN KEY points
// at refTable, computed fresh from the schema rather than kept as a
// separate sidecar (see the package doc comment).
func (c *Catalog) referencedBy(refTable string) []ForeignKey {
	var out []ForeignKey
	for _, t := range c.schema.Tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == refTable {
				out = append(out, ForeignKey{Field: t.Name, RefTable: fk.Field, RefField: fk.RefField})
			}
		}
	}
	return out
}

func toDescs(fields []FieldSchema) ([]*field.Desc, error) {
	descs := make([]*field.Desc, len(fields))
	for i, f := range fields {
		t, ok := field.ParseTypeName(f.Type)
		if !ok {
			return nil, dberrors.New(dberrors.KindUnsupportedType, func(e *dberrors.Error) { e.Got = f.Type })
		}
		strLen := uint64(0)
		if t.IsString() {
			strLen = f.Length - 1
		}
		d, err := field.NewDesc(f.ID, t, strLen, f.PK, f.NotNull, f.Name)
		if err != nil {
			return nil, err
		}
		descs[i] = d
	}
	return descs, nil
}

// CreateTable validates and persists a new table, then creates its .tb
// file. FOREIGN KEY targets must already exist as a primary key of
// matching type and length (spec.md §4.5's DDL checks).
func (c *Catalog) CreateTable(name string, fields []FieldSchema, fks []ForeignKey, checks []string) error {
	if c.TableExists(name) {
		return dberrors.New(dberrors.KindDuplicateTableName, func(e *dberrors.Error) { e.Table = name })
	}
	seen := map[string]bool{}
	for _, f := range fields {
		if seen[f.Name] {
			return dberrors.Wrap(dberrors.KindCreateTableFailed, dberrors.New(dberrors.KindDuplicateFieldName, func(e *dberrors.Error) { e.Field = f.Name }), func(e *dberrors.Error) { e.Table = name })
		}
		seen[f.Name] = true
	}
	for _, fk := range fks {
		refSchema, ok := c.find(fk.RefTable)
		if !ok {
			return dberrors.New(dberrors.KindForeignKeyFailed, func(e *dberrors.Error) { e.RefTable = fk.RefTable })
		}
		var refField *FieldSchema
		for i := range refSchema.Fields {
			if refSchema.Fields[i].Name == fk.RefField {
				refField = &refSchema.Fields[i]
			}
		}
		if refField == nil || !refField.PK {
			return dberrors.New(dberrors.KindPrimaryKeyRequired, func(e *dberrors.Error) { e.RefField = fk.RefField })
		}
		var own *FieldSchema
		for i := range fields {
			if fields[i].Name == fk.Field {
				own = &fields[i]
			}
		}
		if own == nil {
			return dberrors.New(dberrors.KindInvalidFieldName, func(e *dberrors.Error) { e.Field = fk.Field })
		}
		if own.Type != refField.Type {
			return dberrors.New(dberrors.KindTypesDismatch, func(e *dberrors.Error) { e.Field = fk.Field; e.RefField = fk.RefField })
		}
		if own.Length != refField.Length {
			return dberrors.New(dberrors.KindLengthsDismatch, func(e *dberrors.Error) { e.Field = fk.Field; e.RefField = fk.RefField })
		}
	}

	descs, err := toDescs(fields)
	if err != nil {
		return dberrors.Wrap(dberrors.KindCreateTableFailed, err, func(e *dberrors.Error) { e.Table = name })
	}
	mgr, err := table.Create(c.dir, name, descs)
	if err != nil {
		return dberrors.Wrap(dberrors.KindCreateTableFailed, err, func(e *dberrors.Error) { e.Table = name })
	}

	var pk *FieldSchema
	for i := range fields {
		if fields[i].PK {
			pk = &fields[i]
		}
	}
	if pk != nil {
		t, ok := field.ParseTypeName(pk.Type)
		if !ok {
			mgr.Close()
			mgr.Remove()
			return dberrors.New(dberrors.KindUnsupportedType, func(e *dberrors.Error) { e.Got = pk.Type })
		}
		ix, err := index.Create(mgr.IndexPath(pk.ID), t, pk.Length)
		if err != nil {
			mgr.Close()
			mgr.Remove()
			return dberrors.Wrap(dberrors.KindCreateTableFailed, err, func(e *dberrors.Error) { e.Table = name })
		}
		if err := mgr.CreateIndex(pk.ID, ix); err != nil {
			mgr.Close()
			mgr.Remove()
			return dberrors.Wrap(dberrors.KindCreateTableFailed, err, func(e *dberrors.Error) { e.Table = name })
		}
		pk.Indexed = true
	}
	mgr.Close()

	c.schema.Tables = append(c.schema.Tables, TableSchema{Name: name, Fields: fields, ForeignKeys: fks, Checks: checks})
	return c.persist()
}

// DropTable removes a table's files and schema entry. Tables referenced
// by another table's FOREIGN KEY cannot be dropped.
func (c *Catalog) DropTable(name string) error {
	if _, ok := c.find(name); !ok {
		return dberrors.New(dberrors.KindDropTableFailed, func(e *dberrors.Error) { e.Table = name })
	}
	if refs := c.referencedBy(name); len(refs) > 0 {
		return dberrors.New(dberrors.KindTableReferenced, func(e *dberrors.Error) { e.Table = name; e.RefTable = refs[0].Field })
	}
	mgr, err := c.OpenTable(name)
	if err != nil {
		return dberrors.Wrap(dberrors.KindDropTableFailed, err, func(e *dberrors.Error) { e.Table = name })
	}
	if err := mgr.Close(); err != nil {
		return dberrors.Wrap(dberrors.KindRemoveTableFailed, err, func(e *dberrors.Error) { e.Table = name })
	}
	delete(c.tables, name)
	if err := mgr.Remove(); err != nil {
		return dberrors.Wrap(dberrors.KindRemoveTableFailed, err, func(e *dberrors.Error) { e.Table = name })
	}

	for i, t := range c.schema.Tables {
		if t.Name == name {
			c.schema.Tables = append(c.schema.Tables[:i], c.schema.Tables[i+1:]...)
			break
		}
	}
	return c.persist()
}

// OpenTable returns the cached open table.Manager for name, opening it
// (and re-attaching every indexed field) on first use.
func (c *Catalog) OpenTable(name string) (*table.Manager, error) {
	if mgr, ok := c.tables[name]; ok {
		return mgr, nil
	}
	ts, ok := c.find(name)
	if !ok {
		return nil, dberrors.New(dberrors.KindOpenTableFailed, func(e *dberrors.Error) { e.Table = name })
	}
	mgr, err := table.Open(c.dir, name)
	if err != nil {
		return nil, err
	}
	for _, f := range ts.Fields {
		if !f.Indexed {
			continue
		}
		ix, err := index.Open(mgr.IndexPath(f.ID))
		if err != nil {
			mgr.Close()
			return nil, err
		}
		mgr.AttachIndex(f.ID, ix)
	}
	c.tables[name] = mgr
	return mgr, nil
}

// CloseAll closes every cached table (and its attached indexes). Call
// before closing the database.
func (c *Catalog) CloseAll() error {
	for name, mgr := range c.tables {
		if err := mgr.Close(); err != nil {
			return err
		}
		delete(c.tables, name)
	}
	return nil
}

// CreateIndex backfills and attaches a B+-tree index on tableName.fieldName.
func (c *Catalog) CreateIndex(tableName, fieldName string) error {
	ts, ok := c.find(tableName)
	if !ok {
		return dberrors.New(dberrors.KindCreateIndexFailed, func(e *dberrors.Error) { e.Table = tableName; e.Field = fieldName })
	}
	var fs *FieldSchema
	for i := range ts.Fields {
		if ts.Fields[i].Name == fieldName {
			fs = &ts.Fields[i]
		}
	}
	if fs == nil || fs.Indexed {
		return dberrors.New(dberrors.KindCreateIndexFailed, func(e *dberrors.Error) { e.Table = tableName; e.Field = fieldName })
	}
	mgr, err := c.OpenTable(tableName)
	if err != nil {
		return dberrors.Wrap(dberrors.KindCreateIndexFailed, err, func(e *dberrors.Error) { e.Table = tableName; e.Field = fieldName })
	}
	t, ok := field.ParseTypeName(fs.Type)
	if !ok {
		return dberrors.New(dberrors.KindUnsupportedType, func(e *dberrors.Error) { e.Got = fs.Type })
	}
	ix, err := index.Create(mgr.IndexPath(fs.ID), t, fs.Length)
	if err != nil {
		return dberrors.Wrap(dberrors.KindCreateIndexFailed, err, func(e *dberrors.Error) { e.Table = tableName; e.Field = fieldName })
	}
	if err := mgr.CreateIndex(fs.ID, ix); err != nil {
		return dberrors.Wrap(dberrors.KindCreateIndexFailed, err, func(e *dberrors.Error) { e.Table = tableName; e.Field = fieldName })
	}
	fs.Indexed = true
	return c.persist()
}

// DropIndex detaches and removes tableName.fieldName's index.
func (c *Catalog) DropIndex(tableName, fieldName string) error {
	ts, ok := c.find(tableName)
	if !ok {
		return dberrors.New(dberrors.KindDropIndexFailed, func(e *dberrors.Error) { e.Table = tableName; e.Field = fieldName })
	}
	var fs *FieldSchema
	for i := range ts.Fields {
		if ts.Fields[i].Name == fieldName {
			fs = &ts.Fields[i]
		}
	}
	if fs == nil || !fs.Indexed {
		return dberrors.New(dberrors.KindDropIndexFailed, func(e *dberrors.Error) { e.Table = tableName; e.Field = fieldName })
	}
	mgr, err := c.OpenTable(tableName)
	if err != nil {
		return dberrors.Wrap(dberrors.KindDropIndexFailed, err, func(e *dberrors.Error) { e.Table = tableName; e.Field = fieldName })
	}
	ix, ok := mgr.DetachIndex(fs.ID)
	if ok {
		path := mgr.IndexPath(fs.ID)
		ix.Close()
		index.Remove(path)
	}
	fs.Indexed = false
	return c.persist()
}

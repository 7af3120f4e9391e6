package catalog

import (
	"path/filepath"
	"testing"
)

func idField() FieldSchema {
	return FieldSchema{ID: 1, Name: "id", Type: "int", Length: 5, PK: true, NotNull: true}
}

func nameField() FieldSchema {
	return FieldSchema{ID: 2, Name: "name", Type: "char", Length: 17, NotNull: false}
}

func TestCreateDatabaseThenOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	if err := CreateDatabase(dir); err != nil {
		t.Fatalf("create: %s", err)
	}
	if err := CreateDatabase(dir); err == nil {
		t.Fatalf("expected error creating an already-existing database")
	}

	c, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if len(c.TableNames()) != 0 {
		t.Fatalf("expected an empty new database, got %v", c.TableNames())
	}
}

func TestCreateTablePersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	if err := CreateDatabase(dir); err != nil {
		t.Fatalf("create db: %s", err)
	}
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if err := c.CreateTable("people", []FieldSchema{idField(), nameField()}, nil, nil); err != nil {
		t.Fatalf("create table: %s", err)
	}
	if err := c.CreateTable("people", []FieldSchema{idField()}, nil, nil); err == nil {
		t.Fatalf("expected error creating a duplicate table")
	}
	if err := c.CloseAll(); err != nil {
		t.Fatalf("close all: %s", err)
	}

	c2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %s", err)
	}
	if !c2.TableExists("people") {
		t.Fatalf("expected people to survive reopen")
	}
	ts, ok := c2.Schema("people")
	if !ok || len(ts.Fields) != 2 {
		t.Fatalf("expected 2 persisted fields, got %+v", ts)
	}
}

func TestDropTableRefusesWhenReferenced(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	if err := CreateDatabase(dir); err != nil {
		t.Fatalf("create db: %s", err)
	}
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if err := c.CreateTable("people", []FieldSchema{idField(), nameField()}, nil, nil); err != nil {
		t.Fatalf("create people: %s", err)
	}
	orderField := FieldSchema{ID: 1, Name: "id", Type: "int", Length: 5, PK: true, NotNull: true}
	ownerField := FieldSchema{ID: 2, Name: "owner", Type: "int", Length: 5, NotNull: true}
	fk := ForeignKey{Field: "owner", RefTable: "people", RefField: "id"}
	if err := c.CreateTable("orders", []FieldSchema{orderField, ownerField}, []ForeignKey{fk}, nil); err != nil {
		t.Fatalf("create orders: %s", err)
	}

	if err := c.DropTable("people"); err == nil {
		t.Fatalf("expected drop of a referenced table to fail")
	}
	if err := c.DropTable("orders"); err != nil {
		t.Fatalf("drop orders: %s", err)
	}
	if err := c.DropTable("people"); err != nil {
		t.Fatalf("drop people after its referencer is gone: %s", err)
	}
}

func TestForeignKeyMustReferenceAPrimaryKeyOfMatchingShape(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	if err := CreateDatabase(dir); err != nil {
		t.Fatalf("create db: %s", err)
	}
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if err := c.CreateTable("people", []FieldSchema{idField(), nameField()}, nil, nil); err != nil {
		t.Fatalf("create people: %s", err)
	}

	orderField := FieldSchema{ID: 1, Name: "id", Type: "int", Length: 5, PK: true, NotNull: true}
	badOwner := FieldSchema{ID: 2, Name: "owner", Type: "int", Length: 5, NotNull: true}
	fkToNonPK := ForeignKey{Field: "owner", RefTable: "people", RefField: "name"}
	if err := c.CreateTable("orders", []FieldSchema{orderField, badOwner}, []ForeignKey{fkToNonPK}, nil); err == nil {
		t.Fatalf("expected error referencing a non-primary-key field")
	}
}

func TestCreateAndDropIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	if err := CreateDatabase(dir); err != nil {
		t.Fatalf("create db: %s", err)
	}
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	if err := c.CreateTable("people", []FieldSchema{idField(), nameField()}, nil, nil); err != nil {
		t.Fatalf("create table: %s", err)
	}

	if err := c.CreateIndex("people", "name"); err != nil {
		t.Fatalf("create index: %s", err)
	}
	ts, _ := c.Schema("people")
	if !ts.Fields[1].Indexed {
		t.Fatalf("expected name field to be marked indexed")
	}
	if err := c.CreateIndex("people", "name"); err == nil {
		t.Fatalf("expected error creating a duplicate index")
	}

	if err := c.DropIndex("people", "name"); err != nil {
		t.Fatalf("drop index: %s", err)
	}
	ts, _ = c.Schema("people")
	if ts.Fields[1].Indexed {
		t.Fatalf("expected name field to no longer be marked indexed")
	}
}

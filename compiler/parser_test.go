package compiler

import (
	"testing"
)

func parseOne(t *testing.T, sql string) Stmt {
	t.Helper()
	stmts, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse(%q): %v", sql, err)
	}
	if len(stmts) != 1 {
		t.Fatalf("Parse(%q): got %d statements, want 1", sql, len(stmts))
	}
	return stmts[0]
}

func TestParseCreateDatabase(t *testing.T) {
	stmt, ok := parseOne(t, "CREATE DATABASE shop;").(*CreateDatabaseStmt)
	if !ok {
		t.Fatalf("wrong statement type")
	}
	if stmt.Name != "shop" {
		t.Errorf("Name = %q, want shop", stmt.Name)
	}
}

func TestParseCreateTable(t *testing.T) {
	sql := `CREATE TABLE users (
		id INT PRIMARY KEY,
		name VARCHAR(32) NOT NULL,
		org_id INT,
		FOREIGN KEY (org_id) REFERENCES orgs(id),
		CHECK (id > 0)
	);`
	stmt, ok := parseOne(t, sql).(*CreateTableStmt)
	if !ok {
		t.Fatalf("wrong statement type")
	}
	if stmt.Name != "users" {
		t.Errorf("Name = %q, want users", stmt.Name)
	}
	if len(stmt.Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(stmt.Columns))
	}
	if !stmt.Columns[0].PrimaryKey {
		t.Errorf("id should be primary key")
	}
	if !stmt.Columns[1].NotNull {
		t.Errorf("name should be not null")
	}
	if stmt.Columns[1].Length != 32 {
		t.Errorf("name length = %d, want 32", stmt.Columns[1].Length)
	}
	if len(stmt.ForeignKeys) != 1 {
		t.Fatalf("got %d foreign keys, want 1", len(stmt.ForeignKeys))
	}
	fk := stmt.ForeignKeys[0]
	if fk.Field != "org_id" || fk.RefTable != "orgs" || fk.RefField != "id" {
		t.Errorf("unexpected foreign key: %#v", fk)
	}
	if len(stmt.Checks) != 1 {
		t.Fatalf("got %d checks, want 1", len(stmt.Checks))
	}
}

func TestParseInsert(t *testing.T) {
	sql := "INSERT INTO users (id, name) VALUES (1, 'gud'), (2, 'joe');"
	stmt, ok := parseOne(t, sql).(*InsertStmt)
	if !ok {
		t.Fatalf("wrong statement type")
	}
	if stmt.Table != "users" {
		t.Errorf("Table = %q, want users", stmt.Table)
	}
	if len(stmt.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(stmt.Rows))
	}
	if stmt.Rows[0][1] != "gud" {
		t.Errorf("Rows[0][1] = %q, want gud", stmt.Rows[0][1])
	}
}

func TestParseSelectWhereAndOrder(t *testing.T) {
	sql := "SELECT id, name FROM users WHERE age >= 18 AND name != 'bot' ORDER BY name DESC;"
	stmt, ok := parseOne(t, sql).(*SelectStmt)
	if !ok {
		t.Fatalf("wrong statement type")
	}
	if len(stmt.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(stmt.Columns))
	}
	if len(stmt.Tables) != 1 || stmt.Tables[0].Name != "users" {
		t.Fatalf("unexpected tables: %#v", stmt.Tables)
	}
	if len(stmt.Where) != 2 {
		t.Fatalf("got %d where conditions, want 2", len(stmt.Where))
	}
	if stmt.Where[0].Op != ">=" || stmt.Where[1].Op != "!=" {
		t.Errorf("unexpected operators: %#v", stmt.Where)
	}
	if len(stmt.OrderBy) != 1 || !stmt.OrderBy[0].Desc {
		t.Fatalf("unexpected order by: %#v", stmt.OrderBy)
	}
}

func TestParseSelectAggregateGroupBy(t *testing.T) {
	sql := "SELECT dept, COUNT(*) FROM employees GROUP BY dept;"
	stmt, ok := parseOne(t, sql).(*SelectStmt)
	if !ok {
		t.Fatalf("wrong statement type")
	}
	if len(stmt.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(stmt.Columns))
	}
	if stmt.Columns[1].Agg != "COUNT" || stmt.Columns[1].Field != "*" {
		t.Errorf("unexpected aggregate column: %#v", stmt.Columns[1])
	}
	if len(stmt.GroupBy) != 1 || stmt.GroupBy[0].Field != "dept" {
		t.Fatalf("unexpected group by: %#v", stmt.GroupBy)
	}
}

func TestParseUpdate(t *testing.T) {
	sql := "UPDATE users SET name = 'bob', age = 30 WHERE id = 1;"
	stmt, ok := parseOne(t, sql).(*UpdateStmt)
	if !ok {
		t.Fatalf("wrong statement type")
	}
	if stmt.Table != "users" {
		t.Errorf("Table = %q, want users", stmt.Table)
	}
	if len(stmt.Assignments) != 2 {
		t.Fatalf("got %d assignments, want 2", len(stmt.Assignments))
	}
	if len(stmt.Where) != 1 {
		t.Fatalf("got %d where conditions, want 1", len(stmt.Where))
	}
}

func TestParseDelete(t *testing.T) {
	sql := "DELETE FROM users WHERE id = 1;"
	stmt, ok := parseOne(t, sql).(*DeleteStmt)
	if !ok {
		t.Fatalf("wrong statement type")
	}
	if stmt.Table != "users" {
		t.Errorf("Table = %q, want users", stmt.Table)
	}
	if len(stmt.Where) != 1 {
		t.Fatalf("got %d where conditions, want 1", len(stmt.Where))
	}
}

func TestParseMultipleStatements(t *testing.T) {
	stmts, err := Parse("CREATE DATABASE a; USE a; SHOW TABLES;")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}
	if _, ok := stmts[1].(*UseDatabaseStmt); !ok {
		t.Errorf("statement 1 has wrong type: %#v", stmts[1])
	}
}

package db

import "testing"

func mustCreateDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("err creating db: %s", err)
	}
	return d
}

func mustExecute(t *testing.T, d *DB, sql string) {
	t.Helper()
	for _, r := range d.Execute(sql) {
		if r.Err != nil {
			t.Fatalf("executing %q: %s", sql, r.Err)
		}
	}
}

func TestExecuteCreatesAndQueries(t *testing.T) {
	d := mustCreateDB(t)
	mustExecute(t, d, "CREATE DATABASE test; USE test;")
	mustExecute(t, d, "CREATE TABLE person (id INT PRIMARY KEY, name VARCHAR(32), age INT)")
	mustExecute(t, d, "INSERT INTO person (id, name, age) VALUES (1, 'alice', 30), (2, 'bob', 25)")

	results := d.Execute("SELECT name, age FROM person WHERE age > 20 ORDER BY age")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Err != nil {
		t.Fatalf("unexpected error: %s", r.Err)
	}
	if len(r.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(r.Rows))
	}
	if got := *r.Rows[0][0]; got != "'bob'" {
		t.Fatalf("expected first row to be bob, got %s", got)
	}
}

func TestExecuteStopsAtFirstError(t *testing.T) {
	d := mustCreateDB(t)
	mustExecute(t, d, "CREATE DATABASE test; USE test;")
	results := d.Execute("CREATE TABLE t (id INT PRIMARY KEY); INSERT INTO t (id) VALUES (1); SELECT * FROM missing; INSERT INTO t (id) VALUES (2);")
	if len(results) != 3 {
		t.Fatalf("expected 3 results (stop at SELECT failure), got %d", len(results))
	}
	if results[2].Err == nil {
		t.Fatalf("expected third statement to fail")
	}
}

func TestCommentsAreStripped(t *testing.T) {
	d := mustCreateDB(t)
	mustExecute(t, d, "CREATE DATABASE test; USE test;")
	results := d.Execute("CREATE TABLE t (id INT PRIMARY KEY) # trailing comment\n;")
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("expected comment to be stripped without affecting parse, got %+v", results)
	}
}

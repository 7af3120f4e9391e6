package driver_test

import (
	"database/sql"
	"testing"

	_ "github.com/jamishoo-go/oursqlgo/driver"
)

func TestDriver(t *testing.T) {
	db, err := sql.Open("oursqlgo", t.TempDir())
	if err != nil {
		t.Fatalf("open err %s", err.Error())
	}
	if _, err := db.Exec("CREATE DATABASE app; USE app;"); err != nil {
		t.Fatalf("exec err %s", err.Error())
	}
	if _, err := db.Exec("CREATE TABLE foo (id INT PRIMARY KEY, name VARCHAR(16))"); err != nil {
		t.Fatalf("exec err %s", err.Error())
	}
	if _, err := db.Exec("INSERT INTO foo (id, name) VALUES (1, 'one')"); err != nil {
		t.Fatalf("exec err %s", err.Error())
	}
	rows, err := db.Query("SELECT id, name FROM foo")
	if err != nil {
		t.Fatalf("query err %s", err.Error())
	}
	type foo struct {
		id   int
		name string
	}
	fs := make([]*foo, 0)
	for rows.Next() {
		f := &foo{}
		if err := rows.Scan(&f.id, &f.name); err != nil {
			t.Fatalf("scan err %s", err.Error())
		}
		fs = append(fs, f)
	}
	expectCount := 1
	if d := len(fs); d != expectCount {
		t.Fatalf("expected %d got %d", expectCount, d)
	}
	if fs[0].name != "'one'" {
		t.Fatalf("expected 'one' got %s", fs[0].name)
	}
	if fs[0].id != 1 {
		t.Fatalf("expected %d got %d", 1, fs[0].id)
	}
}

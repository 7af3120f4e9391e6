package repl

import "testing"

func makeStr(s string) *string {
	return &s
}

func TestPrint(t *testing.T) {
	r := New(nil)
	header := []string{"id", "name"}
	rows := [][]*string{
		{makeStr("1"), makeStr("gud name")},
		{makeStr("2"), makeStr("gudder name")},
		{makeStr("3"), makeStr("guddest name")},
		{makeStr("4"), nil},
	}
	result := r.printRows(header, rows)
	e := "" +
		" id | name         \n" +
		"----+--------------\n" +
		" 1  | gud name     \n" +
		" 2  | gudder name  \n" +
		" 3  | guddest name \n" +
		" 4  | NULL         \n"
	if result != e {
		t.Errorf("\nwant\n%s\ngot\n%s\n", e, result)
	}
}

func TestPrintCount(t *testing.T) {
	r := New(nil)
	header := []string{""}
	rows := [][]*string{{makeStr("1")}}
	result := r.printRows(header, rows)
	e := "" +
		" <anonymous> \n" +
		"-------------\n" +
		" 1           \n"
	if result != e {
		t.Errorf("\nwant\n%s\ngot\n%s\n", e, result)
	}
}

func TestStatementComplete(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"SELECT 1;", true},
		{"SELECT 1", false},
		{"SELECT ';' ;", true},
		{"-- not a comment marker, just text", false},
		{"SELECT 1; # trailing comment", true},
		{"# just a comment", false},
	}
	for _, c := range cases {
		inQuote := false
		if got := statementComplete(c.line, &inQuote); got != c.want {
			t.Errorf("statementComplete(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

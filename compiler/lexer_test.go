package compiler

import (
	"reflect"
	"testing"
)

type lexTestCase struct {
	sql      string
	expected []token
}

func TestLexSelect(t *testing.T) {
	cases := []lexTestCase{
		{
			sql: "SELECT * FROM foo",
			expected: []token{
				{tokKeyword, "SELECT"},
				{tokPunctuator, "*"},
				{tokKeyword, "FROM"},
				{tokIdentifier, "foo"},
			},
		},
		{
			sql: "select * from foo",
			expected: []token{
				{tokKeyword, "SELECT"},
				{tokPunctuator, "*"},
				{tokKeyword, "FROM"},
				{tokIdentifier, "foo"},
			},
		},
		{
			sql: "SELECT foo.id FROM foo WHERE id = 1",
			expected: []token{
				{tokKeyword, "SELECT"},
				{tokIdentifier, "foo"},
				{tokPunctuator, "."},
				{tokIdentifier, "id"},
				{tokKeyword, "FROM"},
				{tokIdentifier, "foo"},
				{tokKeyword, "WHERE"},
				{tokIdentifier, "id"},
				{tokOperator, "="},
				{tokNumeric, "1"},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.sql, func(t *testing.T) {
			got := lex(c.sql)
			if !reflect.DeepEqual(got, c.expected) {
				t.Errorf("lex(%q) = %#v, want %#v", c.sql, got, c.expected)
			}
		})
	}
}

func TestLexOperators(t *testing.T) {
	cases := []lexTestCase{
		{
			sql: "a <= 1",
			expected: []token{
				{tokIdentifier, "a"},
				{tokOperator, "<="},
				{tokNumeric, "1"},
			},
		},
		{
			sql: "a >= 1",
			expected: []token{
				{tokIdentifier, "a"},
				{tokOperator, ">="},
				{tokNumeric, "1"},
			},
		},
		{
			sql: "a != 1",
			expected: []token{
				{tokIdentifier, "a"},
				{tokOperator, "!="},
				{tokNumeric, "1"},
			},
		},
		{
			sql: "a <> 1",
			expected: []token{
				{tokIdentifier, "a"},
				{tokOperator, "<>"},
				{tokNumeric, "1"},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.sql, func(t *testing.T) {
			got := lex(c.sql)
			if !reflect.DeepEqual(got, c.expected) {
				t.Errorf("lex(%q) = %#v, want %#v", c.sql, got, c.expected)
			}
		})
	}
}

func TestLexCreate(t *testing.T) {
	sql := "CREATE TABLE foo (id INTEGER PRIMARY KEY, name VARCHAR(32), age INT)"
	expected := []token{
		{tokKeyword, "CREATE"},
		{tokKeyword, "TABLE"},
		{tokIdentifier, "foo"},
		{tokSeparator, "("},
		{tokIdentifier, "id"},
		{tokKeyword, "INTEGER"},
		{tokKeyword, "PRIMARY"},
		{tokKeyword, "KEY"},
		{tokSeparator, ","},
		{tokIdentifier, "name"},
		{tokKeyword, "VARCHAR"},
		{tokSeparator, "("},
		{tokNumeric, "32"},
		{tokSeparator, ")"},
		{tokSeparator, ","},
		{tokIdentifier, "age"},
		{tokKeyword, "INT"},
		{tokSeparator, ")"},
	}
	got := lex(sql)
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("lex(%q) = %#v, want %#v", sql, got, expected)
	}
}

func TestLexInsertLiteral(t *testing.T) {
	sql := `INSERT INTO foo VALUES (1, 'it\'s fine')`
	got := lex(sql)
	var literals []token
	for _, tk := range got {
		if tk.typ == tokLiteral {
			literals = append(literals, tk)
		}
	}
	if len(literals) != 1 {
		t.Fatalf("expected 1 literal token, got %d (%#v)", len(literals), got)
	}
}

// parser takes the lexer's token stream and builds the AST the executor
// package runs. Grounded on the teacher's compiler/parser.go cursor
// style (explicit position into the flat token slice, one parseX method
// per grammar rule) widened to the statement set spec.md §6 names.
package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

type parser struct {
	toks []token
	pos  int
}

// Parse splits src on top-level ';' and parses each piece into a Stmt.
// Splitting happens after lexing (not before, the way a naive ';'-inside-
// quotes scan would have to) because the lexer has already told literals
// and separators apart.
func Parse(src string) ([]Stmt, error) {
	toks := lex(src)
	p := &parser{toks: toks}
	var out []Stmt
	for {
		p.skipSeparators(";")
		if p.eof() {
			return out, nil
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
		if !p.eof() && !p.atSeparator(";") {
			return nil, fmt.Errorf("compiler: expected ';' after statement, got %q", p.cur().value)
		}
	}
}

// ParseConditions parses a CHECK clause's captured text: a conjunction of
// one or more simple conditions, independent of any enclosing statement.
func ParseConditions(src string) ([]Condition, error) {
	p := &parser{toks: lex(src)}
	var conds []Condition
	for {
		c, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
		if p.atKeyword("AND") {
			p.pos++
			continue
		}
		break
	}
	if !p.eof() {
		return nil, fmt.Errorf("compiler: unexpected trailing token %q in condition", p.cur().value)
	}
	return conds, nil
}

func (p *parser) skipSeparators(v string) {
	for p.atSeparator(v) {
		p.pos++
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

func (p *parser) cur() token {
	if p.eof() {
		return token{tokEOF, ""}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.cur()
	if !p.eof() {
		p.pos++
	}
	return t
}

func (p *parser) atKeyword(kw string) bool {
	t := p.cur()
	return t.typ == tokKeyword && t.value == kw
}

func (p *parser) atSeparator(v string) bool {
	t := p.cur()
	return t.typ == tokSeparator && t.value == v
}

func (p *parser) atPunctuator(v string) bool {
	t := p.cur()
	return t.typ == tokPunctuator && t.value == v
}

func (p *parser) atOperator(v string) bool {
	t := p.cur()
	return t.typ == tokOperator && t.value == v
}

func (p *parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return fmt.Errorf("compiler: expected %s, got %q", kw, p.cur().value)
	}
	p.pos++
	return nil
}

func (p *parser) expectSeparator(v string) error {
	if !p.atSeparator(v) {
		return fmt.Errorf("compiler: expected %q, got %q", v, p.cur().value)
	}
	p.pos++
	return nil
}

func (p *parser) identifier() (string, error) {
	t := p.cur()
	if t.typ != tokIdentifier {
		return "", fmt.Errorf("compiler: expected identifier, got %q", t.value)
	}
	p.pos++
	return t.value, nil
}

// unquoteLiteral strips the surrounding single quotes and resolves the
// lexer's backslash escapes a literal token carries verbatim.
func unquoteLiteral(raw string) string {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		raw = raw[1 : len(raw)-1]
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}

// value parses a literal value token (numeric or quoted string) and
// returns its raw source text, unquoted.
func (p *parser) value() (string, error) {
	t := p.cur()
	switch t.typ {
	case tokNumeric:
		p.pos++
		return t.value, nil
	case tokLiteral:
		p.pos++
		return unquoteLiteral(t.value), nil
	case tokKeyword:
		if t.value == "TRUE" || t.value == "FALSE" || t.value == "NULL" {
			p.pos++
			return t.value, nil
		}
	}
	return "", fmt.Errorf("compiler: expected a value, got %q", t.value)
}

func (p *parser) parseStmt() (Stmt, error) {
	t := p.cur()
	if t.typ != tokKeyword {
		return nil, fmt.Errorf("compiler: expected a statement keyword, got %q", t.value)
	}
	switch t.value {
	case "CREATE":
		return p.parseCreate()
	case "DROP":
		return p.parseDrop()
	case "USE":
		return p.parseUse()
	case "SHOW":
		return p.parseShow()
	case "DESC", "DESCRIBE":
		p.pos++
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return &DescTableStmt{Name: name}, nil
	case "INSERT":
		return p.parseInsert()
	case "SELECT":
		return p.parseSelect()
	case "DELETE":
		return p.parseDelete()
	case "UPDATE":
		return p.parseUpdate()
	}
	return nil, fmt.Errorf("compiler: unexpected statement keyword %q", t.value)
}

func (p *parser) parseCreate() (Stmt, error) {
	p.pos++ // CREATE
	switch p.cur().value {
	case "DATABASE":
		p.pos++
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return &CreateDatabaseStmt{Name: name}, nil
	case "TABLE":
		p.pos++
		return p.parseCreateTable()
	case "INDEX":
		p.pos++
		if err := p.expectKeyword("ON"); err != nil {
			return nil, err
		}
		table, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectSeparator("("); err != nil {
			return nil, err
		}
		field, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectSeparator(")"); err != nil {
			return nil, err
		}
		return &CreateIndexStmt{Table: table, Field: field}, nil
	}
	return nil, fmt.Errorf("compiler: expected DATABASE, TABLE or INDEX, got %q", p.cur().value)
}

func (p *parser) parseDrop() (Stmt, error) {
	p.pos++ // DROP
	switch p.cur().value {
	case "DATABASE":
		p.pos++
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return &DropDatabaseStmt{Name: name}, nil
	case "TABLE":
		p.pos++
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return &DropTableStmt{Name: name}, nil
	case "INDEX":
		p.pos++
		if err := p.expectKeyword("ON"); err != nil {
			return nil, err
		}
		table, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectSeparator("("); err != nil {
			return nil, err
		}
		field, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectSeparator(")"); err != nil {
			return nil, err
		}
		return &DropIndexStmt{Table: table, Field: field}, nil
	}
	return nil, fmt.Errorf("compiler: expected DATABASE, TABLE or INDEX, got %q", p.cur().value)
}

func (p *parser) parseUse() (Stmt, error) {
	p.pos++ // USE
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	return &UseDatabaseStmt{Name: name}, nil
}

func (p *parser) parseShow() (Stmt, error) {
	p.pos++ // SHOW
	switch p.cur().value {
	case "DATABASES":
		p.pos++
		return &ShowDatabasesStmt{}, nil
	case "TABLES":
		p.pos++
		return &ShowTablesStmt{}, nil
	}
	return nil, fmt.Errorf("compiler: expected DATABASES or TABLES, got %q", p.cur().value)
}

// parseColumnType consumes a column type name, its optional (length), and
// an optional trailing UNSIGNED, returning the type name (upper-cased,
// UNSIGNED folded in for integer types) and the declared length.
func (p *parser) parseColumnType() (string, uint64, error) {
	t := p.cur()
	if t.typ != tokKeyword {
		return "", 0, fmt.Errorf("compiler: expected a column type, got %q", t.value)
	}
	typeName := t.value
	p.pos++
	var length uint64
	if p.atSeparator("(") {
		p.pos++
		nt := p.cur()
		if nt.typ != tokNumeric {
			return "", 0, fmt.Errorf("compiler: expected a length, got %q", nt.value)
		}
		n, err := strconv.ParseUint(nt.value, 10, 64)
		if err != nil {
			return "", 0, fmt.Errorf("compiler: invalid length %q: %w", nt.value, err)
		}
		length = n
		p.pos++
		if err := p.expectSeparator(")"); err != nil {
			return "", 0, err
		}
	}
	if p.atKeyword("UNSIGNED") {
		p.pos++
		typeName += " UNSIGNED"
	}
	return typeName, length, nil
}

func (p *parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.identifier()
	if err != nil {
		return ColumnDef{}, err
	}
	typeName, length, err := p.parseColumnType()
	if err != nil {
		return ColumnDef{}, err
	}
	col := ColumnDef{Name: name, Type: typeName, Length: length}
	for {
		switch {
		case p.atKeyword("PRIMARY"):
			p.pos++
			if err := p.expectKeyword("KEY"); err != nil {
				return ColumnDef{}, err
			}
			col.PrimaryKey = true
			col.NotNull = true
		case p.atKeyword("NOT"):
			p.pos++
			if err := p.expectKeyword("NULL"); err != nil {
				return ColumnDef{}, err
			}
			col.NotNull = true
		case p.atKeyword("UNIQUE"):
			p.pos++
		default:
			return col, nil
		}
	}
}

// captureParenGroup consumes a balanced ( ... ) and returns its interior
// as reconstructed source text, for CHECK clauses the executor evaluates
// as condition expressions rather than the parser itself.
func (p *parser) captureParenGroup() (string, error) {
	if err := p.expectSeparator("("); err != nil {
		return "", err
	}
	depth := 1
	var parts []string
	for {
		if p.eof() {
			return "", fmt.Errorf("compiler: unterminated ( ) group")
		}
		t := p.cur()
		if t.typ == tokSeparator && t.value == "(" {
			depth++
		} else if t.typ == tokSeparator && t.value == ")" {
			depth--
			if depth == 0 {
				p.pos++
				return strings.Join(parts, " "), nil
			}
		}
		parts = append(parts, t.value)
		p.pos++
	}
}

func (p *parser) parseCreateTable() (Stmt, error) {
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectSeparator("("); err != nil {
		return nil, err
	}
	stmt := &CreateTableStmt{Name: name}
	var tablePK string
	for {
		switch {
		case p.atKeyword("PRIMARY"):
			p.pos++
			if err := p.expectKeyword("KEY"); err != nil {
				return nil, err
			}
			if err := p.expectSeparator("("); err != nil {
				return nil, err
			}
			field, err := p.identifier()
			if err != nil {
				return nil, err
			}
			if err := p.expectSeparator(")"); err != nil {
				return nil, err
			}
			tablePK = field
		case p.atKeyword("FOREIGN"):
			p.pos++
			if err := p.expectKeyword("KEY"); err != nil {
				return nil, err
			}
			if err := p.expectSeparator("("); err != nil {
				return nil, err
			}
			field, err := p.identifier()
			if err != nil {
				return nil, err
			}
			if err := p.expectSeparator(")"); err != nil {
				return nil, err
			}
			if err := p.expectKeyword("REFERENCES"); err != nil {
				return nil, err
			}
			refTable, err := p.identifier()
			if err != nil {
				return nil, err
			}
			if err := p.expectSeparator("("); err != nil {
				return nil, err
			}
			refField, err := p.identifier()
			if err != nil {
				return nil, err
			}
			if err := p.expectSeparator(")"); err != nil {
				return nil, err
			}
			stmt.ForeignKeys = append(stmt.ForeignKeys, ForeignKeyDef{
				Field: field, RefTable: refTable, RefField: refField,
			})
		case p.atKeyword("CHECK"):
			p.pos++
			text, err := p.captureParenGroup()
			if err != nil {
				return nil, err
			}
			stmt.Checks = append(stmt.Checks, text)
		default:
			col, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
		}
		if p.atSeparator(",") {
			p.pos++
			continue
		}
		break
	}
	if err := p.expectSeparator(")"); err != nil {
		return nil, err
	}
	if tablePK != "" {
		found := false
		for i := range stmt.Columns {
			if stmt.Columns[i].Name == tablePK {
				stmt.Columns[i].PrimaryKey = true
				stmt.Columns[i].NotNull = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("compiler: PRIMARY KEY(%s) does not name a declared column", tablePK)
		}
	}
	return stmt, nil
}

func (p *parser) parseInsert() (Stmt, error) {
	p.pos++ // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.identifier()
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{Table: table}
	if p.atSeparator("(") {
		p.pos++
		for {
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, name)
			if p.atSeparator(",") {
				p.pos++
				continue
			}
			break
		}
		if err := p.expectSeparator(")"); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	for {
		if err := p.expectSeparator("("); err != nil {
			return nil, err
		}
		var row []string
		for {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
			if p.atSeparator(",") {
				p.pos++
				continue
			}
			break
		}
		if err := p.expectSeparator(")"); err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)
		if p.atSeparator(",") {
			p.pos++
			continue
		}
		break
	}
	return stmt, nil
}

// parseQualifiedField parses IDENTIFIER[.IDENTIFIER], returning
// (table, field) with table == "" when unqualified.
func (p *parser) parseQualifiedField() (string, string, error) {
	first, err := p.identifier()
	if err != nil {
		return "", "", err
	}
	if p.atPunctuator(".") {
		p.pos++
		second, err := p.identifier()
		if err != nil {
			return "", "", err
		}
		return first, second, nil
	}
	return "", first, nil
}

func (p *parser) parseOperand() (Operand, error) {
	t := p.cur()
	if t.typ == tokNumeric || t.typ == tokLiteral {
		v, err := p.value()
		if err != nil {
			return Operand{}, err
		}
		return Operand{Literal: v, IsLiteral: true}, nil
	}
	if t.typ == tokKeyword && (t.value == "TRUE" || t.value == "FALSE" || t.value == "NULL") {
		v, err := p.value()
		if err != nil {
			return Operand{}, err
		}
		return Operand{Literal: v, IsLiteral: true}, nil
	}
	table, field, err := p.parseQualifiedField()
	if err != nil {
		return Operand{}, err
	}
	return Operand{Table: table, Field: field}, nil
}

func (p *parser) parseCondition() (Condition, error) {
	left, err := p.parseOperand()
	if err != nil {
		return Condition{}, err
	}
	if p.atKeyword("IS") {
		p.pos++
		op := "IS NULL"
		if p.atKeyword("NOT") {
			p.pos++
			op = "IS NOT NULL"
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return Condition{}, err
		}
		return Condition{Left: left, Op: op}, nil
	}
	if p.atKeyword("LIKE") {
		p.pos++
		right, err := p.parseOperand()
		if err != nil {
			return Condition{}, err
		}
		return Condition{Left: left, Op: "LIKE", Right: right}, nil
	}
	if p.atKeyword("NOT") {
		p.pos++
		if err := p.expectKeyword("LIKE"); err != nil {
			return Condition{}, err
		}
		right, err := p.parseOperand()
		if err != nil {
			return Condition{}, err
		}
		return Condition{Left: left, Op: "NOT LIKE", Right: right}, nil
	}
	t := p.cur()
	if t.typ != tokOperator {
		return Condition{}, fmt.Errorf("compiler: expected a comparison operator, got %q", t.value)
	}
	p.pos++
	right, err := p.parseOperand()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Left: left, Op: t.value, Right: right}, nil
}

// parseWhere parses WHERE cond (AND cond)*. Conditions form a single
// conjunction, matching Condition's doc comment; OR is not supported.
func (p *parser) parseWhere() ([]Condition, error) {
	if !p.atKeyword("WHERE") {
		return nil, nil
	}
	p.pos++
	var conds []Condition
	for {
		c, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
		if p.atKeyword("AND") {
			p.pos++
			continue
		}
		if p.atKeyword("OR") {
			return nil, fmt.Errorf("compiler: OR is not supported in WHERE clauses")
		}
		break
	}
	return conds, nil
}

func (p *parser) parseSelect() (Stmt, error) {
	p.pos++ // SELECT
	stmt := &SelectStmt{}
	for {
		col, err := p.parseSelectColumn()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.atSeparator(",") {
			p.pos++
			continue
		}
		break
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	for {
		ref, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		stmt.Tables = append(stmt.Tables, ref)
		if p.atSeparator(",") {
			p.pos++
			continue
		}
		if p.atKeyword("JOIN") || p.atKeyword("INNER") {
			if p.atKeyword("INNER") {
				p.pos++
			}
			if err := p.expectKeyword("JOIN"); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	stmt.Where = where
	if p.atKeyword("ON") {
		// JOIN ... ON cond folds into the same WHERE conjunction; this
		// engine does not distinguish join predicates from filters.
		p.pos++
		for {
			c, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			stmt.Where = append(stmt.Where, c)
			if p.atKeyword("AND") {
				p.pos++
				continue
			}
			break
		}
	}
	if p.atKeyword("GROUP") {
		p.pos++
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			table, field, err := p.parseQualifiedField()
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, Operand{Table: table, Field: field})
			if p.atSeparator(",") {
				p.pos++
				continue
			}
			break
		}
	}
	if p.atKeyword("ORDER") {
		p.pos++
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			table, field, err := p.parseQualifiedField()
			if err != nil {
				return nil, err
			}
			term := OrderTerm{Table: table, Field: field}
			if p.atKeyword("DESC") {
				p.pos++
				term.Desc = true
			} else if p.atKeyword("ASC") {
				p.pos++
			}
			stmt.OrderBy = append(stmt.OrderBy, term)
			if p.atSeparator(",") {
				p.pos++
				continue
			}
			break
		}
	}
	return stmt, nil
}

var aggFuncs = map[string]bool{"COUNT": true, "SUM": true, "AVG": true, "MAX": true, "MIN": true}

func (p *parser) parseSelectColumn() (SelectColumn, error) {
	if p.atPunctuator("*") {
		p.pos++
		return SelectColumn{All: true}, nil
	}
	t := p.cur()
	if t.typ == tokKeyword && aggFuncs[t.value] {
		p.pos++
		if err := p.expectSeparator("("); err != nil {
			return SelectColumn{}, err
		}
		col := SelectColumn{Agg: t.value}
		if p.atPunctuator("*") {
			p.pos++
			col.Field = "*"
		} else {
			table, field, err := p.parseQualifiedField()
			if err != nil {
				return SelectColumn{}, err
			}
			col.Table, col.Field = table, field
		}
		if err := p.expectSeparator(")"); err != nil {
			return SelectColumn{}, err
		}
		if p.atKeyword("AS") {
			p.pos++
			alias, err := p.identifier()
			if err != nil {
				return SelectColumn{}, err
			}
			col.Alias = alias
		}
		return col, nil
	}
	table, field, err := p.parseQualifiedField()
	if err != nil {
		return SelectColumn{}, err
	}
	col := SelectColumn{Table: table, Field: field}
	if p.atKeyword("AS") {
		p.pos++
		alias, err := p.identifier()
		if err != nil {
			return SelectColumn{}, err
		}
		col.Alias = alias
	}
	return col, nil
}

func (p *parser) parseTableRef() (TableRef, error) {
	name, err := p.identifier()
	if err != nil {
		return TableRef{}, err
	}
	ref := TableRef{Name: name}
	if p.atKeyword("AS") {
		p.pos++
		alias, err := p.identifier()
		if err != nil {
			return TableRef{}, err
		}
		ref.Alias = alias
	} else if p.cur().typ == tokIdentifier {
		ref.Alias = p.advance().value
	}
	return ref, nil
}

func (p *parser) parseDelete() (Stmt, error) {
	p.pos++ // DELETE
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.identifier()
	if err != nil {
		return nil, err
	}
	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{Table: table, Where: where}, nil
}

func (p *parser) parseUpdate() (Stmt, error) {
	p.pos++ // UPDATE
	table, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{Table: table}
	for {
		field, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if !p.atOperator("=") {
			return nil, fmt.Errorf("compiler: expected '=' in SET clause, got %q", p.cur().value)
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Field: field, Value: v})
		if p.atSeparator(",") {
			p.pos++
			continue
		}
		break
	}
	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	stmt.Where = where
	return stmt, nil
}

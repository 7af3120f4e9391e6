package executor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jamishoo-go/oursqlgo/compiler"
	"github.com/jamishoo-go/oursqlgo/internal/dberrors"
	"github.com/jamishoo-go/oursqlgo/internal/field"
)

// tuple binds one candidate row per table alias while a condition or
// SELECT projection is evaluated, the executor's stand-in for spec.md
// §4.6's "environment of bound tables" during WHERE/join evaluation.
type tuple struct {
	order  []string
	fields map[string][]*field.Desc
	recs   map[string][]byte
}

func newTuple() *tuple {
	return &tuple{fields: map[string][]*field.Desc{}, recs: map[string][]byte{}}
}

func (tp *tuple) bind(alias string, fields []*field.Desc, rec []byte) {
	if _, ok := tp.fields[alias]; !ok {
		tp.order = append(tp.order, alias)
	}
	tp.fields[alias] = fields
	tp.recs[alias] = rec
}

func findFieldDesc(fields []*field.Desc, name string) *field.Desc {
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func fieldOffset(fields []*field.Desc, id uint64) int {
	off := 0
	for _, f := range fields {
		if f.ID == id {
			return off
		}
		off += int(f.Length)
	}
	return -1
}

// lookup resolves a possibly-unqualified field reference against the
// bound aliases, erroring on an unknown or ambiguous name.
func (tp *tuple) lookup(table, name string) (*field.Desc, []byte, error) {
	if table != "" {
		fs, ok := tp.fields[table]
		if !ok {
			return nil, nil, dberrors.New(dberrors.KindInvalidFieldName, func(e *dberrors.Error) { e.Field = table + "." + name })
		}
		f := findFieldDesc(fs, name)
		if f == nil {
			return nil, nil, dberrors.New(dberrors.KindInvalidFieldName, func(e *dberrors.Error) { e.Field = name })
		}
		off := fieldOffset(fs, f.ID)
		return f, tp.recs[table][off : off+int(f.Length)], nil
	}
	var found *field.Desc
	var foundRec []byte
	count := 0
	for _, alias := range tp.order {
		f := findFieldDesc(tp.fields[alias], name)
		if f != nil {
			found = f
			off := fieldOffset(tp.fields[alias], f.ID)
			foundRec = tp.recs[alias][off : off+int(f.Length)]
			count++
		}
	}
	if count == 0 {
		return nil, nil, dberrors.New(dberrors.KindInvalidFieldName, func(e *dberrors.Error) { e.Field = name })
	}
	if count > 1 {
		return nil, nil, fmt.Errorf("executor: field %q is ambiguous", name)
	}
	return found, foundRec, nil
}

func tryField(op compiler.Operand, tp *tuple) (*field.Desc, []byte, bool) {
	if op.IsLiteral {
		return nil, nil, false
	}
	f, v, err := tp.lookup(op.Table, op.Field)
	if err != nil {
		return nil, nil, false
	}
	return f, v, true
}

func literalStatusErr(status field.ParseStatus, literal string) error {
	if status == field.ParseOutOfRange {
		return dberrors.New(dberrors.KindLiteralOutOfRange, func(e *dberrors.Error) { e.Literal = literal })
	}
	return dberrors.New(dberrors.KindLiteralParseFailed, func(e *dberrors.Error) { e.Literal = literal })
}

// rawString decodes a char/uchar payload to a plain Go string, trimming
// the trailing zero padding, without Render's display quoting.
func rawString(encoded []byte) string {
	payload := encoded[1:]
	end := 0
	for end < len(payload) && payload[end] != 0 {
		end++
	}
	return string(payload[:end])
}

// likePattern turns a SQL LIKE pattern (% any run, _ any one char) into an
// anchored regexp.
func likePattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// evalCondition evaluates one simple condition against the bound tuple,
// resolving whichever side names a field to learn the comparison's type
// and parsing any literal operand against that type (spec.md §4.3's typed
// comparison, extended with IS NULL/IS NOT NULL and LIKE per §4.6).
func evalCondition(cond compiler.Condition, tp *tuple) (bool, error) {
	leftField, leftVal, leftOK := tryField(cond.Left, tp)
	rightField, rightVal, rightOK := tryField(cond.Right, tp)

	var t field.Type
	var length uint64
	var a, b []byte

	switch {
	case leftOK && rightOK:
		if leftField.Type != rightField.Type || leftField.Length != rightField.Length {
			return false, dberrors.New(dberrors.KindInvalidConditionOperand, func(e *dberrors.Error) { e.Operand = cond.Left.Field })
		}
		t, length = leftField.Type, leftField.Length
		a, b = leftVal, rightVal
	case leftOK:
		t, length = leftField.Type, leftField.Length
		a = leftVal
		if cond.Op != "IS NULL" && cond.Op != "IS NOT NULL" {
			lit, status := field.EncodeText(cond.Right.Literal, t, length)
			if status != field.ParseOK {
				return false, literalStatusErr(status, cond.Right.Literal)
			}
			b = lit
		}
	case rightOK:
		t, length = rightField.Type, rightField.Length
		b = rightVal
		lit, status := field.EncodeText(cond.Left.Literal, t, length)
		if status != field.ParseOK {
			return false, literalStatusErr(status, cond.Left.Literal)
		}
		a = lit
	default:
		return false, dberrors.New(dberrors.KindInvalidCondition, nil)
	}

	switch cond.Op {
	case "IS NULL":
		return field.IsNull(a), nil
	case "IS NOT NULL":
		return !field.IsNull(a), nil
	case "LIKE", "NOT LIKE":
		if field.IsNull(a) || !t.IsString() {
			return false, nil
		}
		re, err := likePattern(cond.Right.Literal)
		if err != nil {
			return false, dberrors.New(dberrors.KindInvalidConditionOperand, func(e *dberrors.Error) { e.Operand = cond.Right.Literal })
		}
		matched := re.MatchString(rawString(a))
		if cond.Op == "NOT LIKE" {
			return !matched, nil
		}
		return matched, nil
	}

	if field.IsNull(a) || field.IsNull(b) {
		return false, nil
	}
	c := field.Compare(a, b, t, length)
	switch cond.Op {
	case "=":
		return c == 0, nil
	case "!=", "<>":
		return c != 0, nil
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, dberrors.New(dberrors.KindInvalidConditionOperator, func(e *dberrors.Error) { e.Operator = cond.Op })
}

// evalConjunction evaluates an AND-only list of conditions (WHERE/CHECK's
// shape per compiler.Condition's doc comment) against the bound tuple.
func evalConjunction(conds []compiler.Condition, tp *tuple) (bool, error) {
	for _, c := range conds {
		ok, err := evalCondition(c, tp)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

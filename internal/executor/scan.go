package executor

import (
	"github.com/jamishoo-go/oursqlgo/compiler"
	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/rid"
	"github.com/jamishoo-go/oursqlgo/internal/table"
)

// isSargable reports whether c is a single literal-comparison condition on
// one of fields, the shape spec.md §4.6.a's selection algorithm can answer
// with an index lookup (or, absent an index, table.Manager's own scan
// fallback) rather than a full materialize-then-filter.
func isSargable(c compiler.Condition, fields []*field.Desc, alias string) bool {
	if c.Left.IsLiteral || !c.Right.IsLiteral {
		return false
	}
	if c.Left.Table != "" && c.Left.Table != alias {
		return false
	}
	switch c.Op {
	case "=", "!=", "<", "<=", ">", ">=":
	default:
		return false
	}
	return findFieldDesc(fields, c.Left.Field) != nil
}

func subtractRIDs(a, b []rid.RID) []rid.RID {
	var out []rid.RID
	for _, x := range a {
		dup := false
		for _, y := range b {
			if rid.Equal(x, y) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, x)
		}
	}
	return out
}

func intersectRIDs(a, b []rid.RID) []rid.RID {
	var out []rid.RID
	for _, x := range a {
		for _, y := range b {
			if rid.Equal(x, y) {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

// candidateRIDs computes the RID set a table contributes to one table's
// WHERE evaluation: sargable conditions narrow the set via FindEqual/
// FindRange (index-backed when attached, full scan otherwise, per
// table.Manager's own contract), intersected across conditions; anything
// left over is applied by reading each candidate record and evaluating
// the remaining conjunction in Go.
func candidateRIDs(mgr *table.Manager, fields []*field.Desc, where []compiler.Condition, alias string) ([]rid.RID, error) {
	var sargable, rest []compiler.Condition
	for _, c := range where {
		if isSargable(c, fields, alias) {
			sargable = append(sargable, c)
		} else {
			rest = append(rest, c)
		}
	}

	var candidate []rid.RID
	have := false
	for _, c := range sargable {
		f := findFieldDesc(fields, c.Left.Field)
		lit, status := field.EncodeText(c.Right.Literal, f.Type, f.Length)
		if status != field.ParseOK {
			return nil, literalStatusErr(status, c.Right.Literal)
		}
		if field.IsNull(lit) {
			// A comparison against NULL never holds (see evalCondition).
			candidate, have = nil, true
			continue
		}
		// Ranges open on the low side start at the type's minimum so that
		// null values, which sort before it, are never included.
		lo := field.MinValue(f.Type, f.Length)
		var rids []rid.RID
		var err error
		switch c.Op {
		case "=":
			rids, err = mgr.FindEqual(f.ID, lit)
		case ">=":
			rids, err = mgr.FindRange(f.ID, lit, nil, true, false)
		case ">":
			rids, err = mgr.FindRange(f.ID, lit, nil, false, false)
		case "<":
			rids, err = mgr.FindRange(f.ID, lo, lit, true, false)
		case "<=":
			rids, err = mgr.FindRange(f.ID, lo, lit, true, true)
		case "!=":
			var all, eq []rid.RID
			all, err = mgr.FindRange(f.ID, lo, nil, true, false)
			if err == nil {
				eq, err = mgr.FindEqual(f.ID, lit)
			}
			rids = subtractRIDs(all, eq)
		}
		if err != nil {
			return nil, err
		}
		if !have {
			candidate, have = rids, true
		} else {
			candidate = intersectRIDs(candidate, rids)
		}
	}

	if !have {
		if err := mgr.TraverseRecords(func(r rid.RID, rec []byte) error {
			candidate = append(candidate, r)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if len(rest) == 0 {
		return candidate, nil
	}
	var out []rid.RID
	for _, r := range candidate {
		rec, err := mgr.ReadRecord(r)
		if err != nil {
			return nil, err
		}
		tp := newTuple()
		tp.bind(alias, fields, rec)
		ok, err := evalConjunction(rest, tp)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

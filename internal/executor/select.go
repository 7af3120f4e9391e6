// SELECT evaluation: open every FROM table, prune each to a candidate RID
// set with whichever WHERE conditions are answerable against it alone,
// materialize those candidates as in-memory records, then nested-loop
// join across tables (FROM order) re-checking the full WHERE conjunction
// on the joined tuple. This keeps spec.md §4.6's per-table/cross-table
// split and sargable selection (§4.6.a) but joins in memory rather than
// materializing a temp table with rebuilt indexes per join stage — this
// engine's tables are small enough that the simplification costs nothing
// in practice (see DESIGN.md).
package executor

import (
	"sort"
	"strconv"

	"github.com/jamishoo-go/oursqlgo/compiler"
	"github.com/jamishoo-go/oursqlgo/internal/dberrors"
	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/table"
)

type boundTable struct {
	alias  string
	mgr    *table.Manager
	fields []*field.Desc
}

func operandOwnedBy(op compiler.Operand, alias string, singleTable bool) bool {
	if op.IsLiteral {
		return true
	}
	if op.Table == alias {
		return true
	}
	return op.Table == "" && singleTable
}

func ownConditions(where []compiler.Condition, alias string, singleTable bool) []compiler.Condition {
	var out []compiler.Condition
	for _, c := range where {
		if operandOwnedBy(c.Left, alias, singleTable) && operandOwnedBy(c.Right, alias, singleTable) {
			out = append(out, c)
		}
	}
	return out
}

func aggFuncFor(name string) field.AggFunc {
	switch name {
	case "SUM":
		return field.AggSum
	case "AVG":
		return field.AggAvg
	case "MAX":
		return field.AggMax
	case "MIN":
		return field.AggMin
	}
	return field.AggCount
}

type group struct {
	rows []*tuple
}

// groupTuples partitions tuples by the encoded value of every GROUP BY
// operand; an empty groupBy list means "one group holding everything",
// which is how an aggregate with no GROUP BY still produces exactly one
// output row (spec.md §4.3's empty/all-null group rules apply per group)
// — but only when there is at least one input row. An aggregate-only
// SELECT over zero matching rows produces zero groups, not a one-row
// group of NULLs (spec.md §8, original_source/src/db_query.h's
// "if (rids.size()) groups.push_back(...)").
func groupTuples(tuples []*tuple, groupBy []compiler.Operand) ([]*group, error) {
	if len(groupBy) == 0 {
		if len(tuples) == 0 {
			return nil, nil
		}
		return []*group{{rows: tuples}}, nil
	}
	index := map[string]int{}
	var groups []*group
	for _, tp := range tuples {
		var key []byte
		for _, op := range groupBy {
			_, v, err := tp.lookup(op.Table, op.Field)
			if err != nil {
				return nil, err
			}
			key = append(key, v...)
		}
		k := string(key)
		idx, ok := index[k]
		if !ok {
			idx = len(groups)
			index[k] = idx
			groups = append(groups, &group{})
		}
		groups[idx].rows = append(groups[idx].rows, tp)
	}
	return groups, nil
}

type outCol struct {
	header string
	get    func(rows []*tuple) (text string, isNull bool, err error)
}

func buildColumns(cols []compiler.SelectColumn, tables []boundTable) ([]outCol, error) {
	var out []outCol
	for _, col := range cols {
		col := col
		switch {
		case col.All:
			for _, bt := range tables {
				bt := bt
				for _, f := range bt.fields {
					f := f
					header := f.Name
					if len(tables) > 1 {
						header = bt.alias + "." + f.Name
					}
					out = append(out, outCol{header: header, get: func(rows []*tuple) (string, bool, error) {
						if len(rows) == 0 {
							return "", true, nil
						}
						_, v, err := rows[0].lookup(bt.alias, f.Name)
						if err != nil {
							return "", false, err
						}
						if field.IsNull(v) {
							return "", true, nil
						}
						return field.Render(v, f.Type), false, nil
					}})
				}
			}
		case col.Agg != "":
			header := col.Alias
			if header == "" {
				if col.Field == "*" {
					header = col.Agg + "(*)"
				} else {
					header = col.Agg + "(" + col.Field + ")"
				}
			}
			if col.Agg == "COUNT" && col.Field == "*" {
				out = append(out, outCol{header: header, get: func(rows []*tuple) (string, bool, error) {
					return strconv.Itoa(len(rows)), false, nil
				}})
				continue
			}
			tbl, fld := col.Table, col.Field
			fdesc, err := resolveColumnField(tbl, fld, tables)
			if err != nil {
				return nil, err
			}
			fn := aggFuncFor(col.Agg)
			out = append(out, outCol{header: header, get: func(rows []*tuple) (string, bool, error) {
				vals := make([][]byte, 0, len(rows))
				for _, tp := range rows {
					_, v, err := tp.lookup(tbl, fld)
					if err != nil {
						return "", false, err
					}
					vals = append(vals, v)
				}
				res, err := field.Aggregate(fn, vals, 0, fdesc.Type, fdesc.Length)
				if err != nil {
					return "", false, dberrors.Wrap(dberrors.KindAggregateFailed, err, nil)
				}
				if field.IsNull(res.Encoded) {
					return "", true, nil
				}
				return field.Render(res.Encoded, res.ResultType), false, nil
			}})
		default:
			header := col.Alias
			if header == "" {
				if len(tables) > 1 && col.Table != "" {
					header = col.Table + "." + col.Field
				} else {
					header = col.Field
				}
			}
			tbl, fld := col.Table, col.Field
			out = append(out, outCol{header: header, get: func(rows []*tuple) (string, bool, error) {
				if len(rows) == 0 {
					return "", true, nil
				}
				f, v, err := rows[0].lookup(tbl, fld)
				if err != nil {
					return "", false, err
				}
				if field.IsNull(v) {
					return "", true, nil
				}
				return field.Render(v, f.Type), false, nil
			}})
		}
	}
	return out, nil
}

func resolveColumnField(tableAlias, name string, tables []boundTable) (*field.Desc, error) {
	if tableAlias != "" {
		for _, bt := range tables {
			if bt.alias == tableAlias {
				f := findFieldDesc(bt.fields, name)
				if f == nil {
					return nil, dberrors.New(dberrors.KindInvalidFieldName, func(x *dberrors.Error) { x.Field = name })
				}
				return f, nil
			}
		}
		return nil, dberrors.New(dberrors.KindInvalidFieldName, func(x *dberrors.Error) { x.Field = tableAlias + "." + name })
	}
	var found *field.Desc
	count := 0
	for _, bt := range tables {
		if f := findFieldDesc(bt.fields, name); f != nil {
			found, count = f, count+1
		}
	}
	if count == 0 {
		return nil, dberrors.New(dberrors.KindInvalidFieldName, func(x *dberrors.Error) { x.Field = name })
	}
	if count > 1 {
		return nil, dberrors.New(dberrors.KindInvalidCondition, func(x *dberrors.Error) { x.Field = name })
	}
	return found, nil
}

func (e *Engine) selectStmt(s *compiler.SelectStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	if len(s.GroupBy) > 0 && len(s.OrderBy) > 0 {
		return errResult(dberrors.New(dberrors.KindBothGroupAndOrder, nil))
	}

	var tables []boundTable
	seen := map[string]bool{}
	for _, ref := range s.Tables {
		alias := ref.Alias
		if alias == "" {
			alias = ref.Name
		}
		if seen[alias] {
			return errResult(dberrors.New(dberrors.KindDuplicateTableName, func(x *dberrors.Error) { x.Table = alias }))
		}
		seen[alias] = true
		mgr, err := e.cur.OpenTable(ref.Name)
		if err != nil {
			return errResult(dberrors.Wrap(dberrors.KindSimpleSelectFailed, err, func(x *dberrors.Error) { x.Table = ref.Name }))
		}
		tables = append(tables, boundTable{alias: alias, mgr: mgr, fields: mgr.Fields()})
	}

	failKind := dberrors.KindSimpleSelectFailed
	if len(tables) > 1 {
		failKind = dberrors.KindComplexSelectFailed
	}
	singleTable := len(tables) == 1

	perTableRows := make([][][]byte, len(tables))
	for i, bt := range tables {
		own := ownConditions(s.Where, bt.alias, singleTable)
		rids, err := candidateRIDs(bt.mgr, bt.fields, own, bt.alias)
		if err != nil {
			return errResult(dberrors.Wrap(failKind, err, nil))
		}
		recs := make([][]byte, len(rids))
		for j, r := range rids {
			rec, err := bt.mgr.ReadRecord(r)
			if err != nil {
				return errResult(dberrors.Wrap(failKind, err, nil))
			}
			recs[j] = rec
		}
		perTableRows[i] = recs
	}

	var tuples []*tuple
	var cross func(i int, tp *tuple) error
	cross = func(i int, tp *tuple) error {
		if i == len(tables) {
			ok, err := evalConjunction(s.Where, tp)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			clone := newTuple()
			for _, alias := range tp.order {
				clone.bind(alias, tp.fields[alias], tp.recs[alias])
			}
			tuples = append(tuples, clone)
			return nil
		}
		for _, rec := range perTableRows[i] {
			tp.bind(tables[i].alias, tables[i].fields, rec)
			if err := cross(i+1, tp); err != nil {
				return err
			}
		}
		return nil
	}
	if err := cross(0, newTuple()); err != nil {
		return errResult(dberrors.Wrap(failKind, err, nil))
	}

	hasAgg := false
	for _, c := range s.Columns {
		if c.Agg != "" {
			hasAgg = true
		}
	}

	outCols, err := buildColumns(s.Columns, tables)
	if err != nil {
		return errResult(dberrors.Wrap(failKind, err, nil))
	}
	header := make([]string, len(outCols))
	for i, oc := range outCols {
		header[i] = oc.header
	}

	renderRow := func(rows []*tuple) ([]*string, error) {
		row := make([]*string, len(outCols))
		for i, oc := range outCols {
			text, isNull, err := oc.get(rows)
			if err != nil {
				return nil, err
			}
			if !isNull {
				t := text
				row[i] = &t
			}
		}
		return row, nil
	}

	var rowsOut [][]*string
	if hasAgg || len(s.GroupBy) > 0 {
		groups, err := groupTuples(tuples, s.GroupBy)
		if err != nil {
			return errResult(dberrors.Wrap(dberrors.KindAggregateFailed, err, nil))
		}
		for _, g := range groups {
			row, err := renderRow(g.rows)
			if err != nil {
				return errResult(dberrors.Wrap(dberrors.KindAggregateFailed, err, nil))
			}
			rowsOut = append(rowsOut, row)
		}
		return Result{Header: header, Rows: rowsOut}
	}

	if len(s.OrderBy) > 0 {
		sort.SliceStable(tuples, func(i, j int) bool {
			for _, ot := range s.OrderBy {
				fi, vi, erri := tuples[i].lookup(ot.Table, ot.Field)
				_, vj, errj := tuples[j].lookup(ot.Table, ot.Field)
				if erri != nil || errj != nil {
					return false
				}
				c := field.Compare(vi, vj, fi.Type, fi.Length)
				if ot.Desc {
					c = -c
				}
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}
	for _, tp := range tuples {
		row, err := renderRow([]*tuple{tp})
		if err != nil {
			return errResult(dberrors.Wrap(failKind, err, nil))
		}
		rowsOut = append(rowsOut, row)
	}
	return Result{Header: header, Rows: rowsOut}
}

// INSERT/DELETE/UPDATE validate every affected row's constraints (NOT
// NULL, CHECK, foreign keys, primary-key uniqueness) before mutating any
// of them. table.Manager has no multi-row undo primitive, so this
// validate-before-mutate ordering is how spec.md §4.4's "rolls back the
// whole statement on the first constraint failure" is achieved without a
// separate undo log (see DESIGN.md).
package executor

import (
	"fmt"
	"strconv"

	"github.com/jamishoo-go/oursqlgo/compiler"
	"github.com/jamishoo-go/oursqlgo/internal/dberrors"
	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/rid"
)

// packRecord concatenates per-field encoded values into one record buffer
// in field declaration order, the layout tuple.lookup's offset math
// assumes.
func packRecord(fields []*field.Desc, values [][]byte) []byte {
	total := 0
	for _, f := range fields {
		total += int(f.Length)
	}
	out := make([]byte, 0, total)
	for _, v := range values {
		out = append(out, v...)
	}
	return out
}

// evalChecks evaluates every CHECK clause's captured text against one
// candidate row, reparsing each clause's conditions independently (see
// compiler.ParseConditions's doc comment).
func evalChecks(checks []string, fields []*field.Desc, values [][]byte) error {
	if len(checks) == 0 {
		return nil
	}
	tp := newTuple()
	tp.bind("", fields, packRecord(fields, values))
	for _, chk := range checks {
		conds, err := compiler.ParseConditions(chk)
		if err != nil {
			return err
		}
		ok, err := evalConjunction(conds, tp)
		if err != nil {
			return err
		}
		if !ok {
			return dberrors.New(dberrors.KindCheckConstraintFailed, nil)
		}
	}
	return nil
}

func (e *Engine) insert(s *compiler.InsertStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	wrap := func(cause error) Result {
		return errResult(dberrors.Wrap(dberrors.KindInsertRecordFailed, cause, func(x *dberrors.Error) { x.Table = s.Table }))
	}

	mgr, err := e.cur.OpenTable(s.Table)
	if err != nil {
		return wrap(err)
	}
	ts, _ := e.cur.Schema(s.Table)
	fields := mgr.Fields()
	pk := mgr.PrimaryKeyField()
	hiddenPK := pk != nil && pk.Name == "__rowid__"

	columns := s.Columns
	if len(columns) == 0 {
		for _, f := range fields {
			if hiddenPK && f.ID == pk.ID {
				continue
			}
			columns = append(columns, f.Name)
		}
	}

	rows := make([][][]byte, 0, len(s.Rows))
	seenPK := map[string]bool{}
	for _, row := range s.Rows {
		if len(row) != len(columns) {
			return wrap(dberrors.New(dberrors.KindWrongTupleSize, func(x *dberrors.Error) {
				x.Expected, x.Got = fmt.Sprint(len(columns)), fmt.Sprint(len(row))
			}))
		}
		text := make(map[string]string, len(columns))
		for i, c := range columns {
			text[c] = row[i]
		}

		values := make([][]byte, len(fields))
		for i, f := range fields {
			if hiddenPK && f.ID == pk.ID {
				id, err := mgr.NextAutoID()
				if err != nil {
					return wrap(err)
				}
				enc, status := field.EncodeText(strconv.FormatUint(id, 10), f.Type, f.Length)
				if status != field.ParseOK {
					return wrap(literalStatusErr(status, strconv.FormatUint(id, 10)))
				}
				values[i] = enc
				continue
			}
			t, given := text[f.Name]
			if !given {
				if f.NotNull {
					return wrap(dberrors.New(dberrors.KindNotNullExpected, func(x *dberrors.Error) { x.Field = f.Name }))
				}
				t = "null"
			}
			enc, status := field.EncodeText(t, f.Type, f.Length)
			if status != field.ParseOK {
				return wrap(literalStatusErr(status, t))
			}
			if field.IsNull(enc) && f.NotNull {
				return wrap(dberrors.New(dberrors.KindNotNullExpected, func(x *dberrors.Error) { x.Field = f.Name }))
			}
			values[i] = enc
		}

		if pk != nil {
			pkIdx := -1
			for i, f := range fields {
				if f.ID == pk.ID {
					pkIdx = i
				}
			}
			pkBytes := values[pkIdx]
			key := string(pkBytes)
			if seenPK[key] {
				return wrap(dberrors.New(dberrors.KindDuplicatePrimaryKey, func(x *dberrors.Error) { x.Value = field.Render(pkBytes, pk.Type) }))
			}
			existing, err := mgr.FindEqual(pk.ID, pkBytes)
			if err != nil {
				return wrap(err)
			}
			if len(existing) > 0 {
				return wrap(dberrors.New(dberrors.KindDuplicatePrimaryKey, func(x *dberrors.Error) { x.Value = field.Render(pkBytes, pk.Type) }))
			}
			seenPK[key] = true
		}

		for _, fk := range ts.ForeignKeys {
			var fv []byte
			for i, f := range fields {
				if f.Name == fk.Field {
					fv = values[i]
				}
			}
			if field.IsNull(fv) {
				continue
			}
			refMgr, err := e.cur.OpenTable(fk.RefTable)
			if err != nil {
				return wrap(err)
			}
			refF := findFieldDesc(refMgr.Fields(), fk.RefField)
			found, err := refMgr.FindEqual(refF.ID, fv)
			if err != nil {
				return wrap(err)
			}
			if len(found) == 0 {
				return wrap(dberrors.New(dberrors.KindReferencedNotExists, func(x *dberrors.Error) {
					x.Value, x.RefTable = field.Render(fv, refF.Type), fk.RefTable
				}))
			}
		}

		if err := evalChecks(ts.Checks, fields, values); err != nil {
			return wrap(err)
		}
		rows = append(rows, values)
	}

	for _, values := range rows {
		if _, err := mgr.InsertRecord(values); err != nil {
			return wrap(err)
		}
	}
	return Result{Text: fmt.Sprintf("%d row(s) inserted.", len(rows))}
}

func (e *Engine) deleteStmt(s *compiler.DeleteStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	wrap := func(cause error) Result {
		return errResult(dberrors.Wrap(dberrors.KindDeleteRecordFailed, cause, func(x *dberrors.Error) { x.Table = s.Table }))
	}

	mgr, err := e.cur.OpenTable(s.Table)
	if err != nil {
		return wrap(err)
	}
	fields := mgr.Fields()
	rids, err := candidateRIDs(mgr, fields, s.Where, s.Table)
	if err != nil {
		return wrap(err)
	}

	for _, childName := range e.cur.TableNames() {
		childTS, _ := e.cur.Schema(childName)
		for _, fk := range childTS.ForeignKeys {
			if fk.RefTable != s.Table {
				continue
			}
			refF := findFieldDesc(fields, fk.RefField)
			childMgr, err := e.cur.OpenTable(childName)
			if err != nil {
				return wrap(err)
			}
			srcF := findFieldDesc(childMgr.Fields(), fk.Field)
			for _, r := range rids {
				val, err := mgr.Value(r, refF.ID)
				if err != nil {
					return wrap(err)
				}
				found, err := childMgr.FindEqual(srcF.ID, val)
				if err != nil {
					return wrap(err)
				}
				if len(found) > 0 {
					return errResult(dberrors.New(dberrors.KindRecordReferenced, func(x *dberrors.Error) { x.RefTable = childName }))
				}
			}
		}
	}

	for _, r := range rids {
		if err := mgr.DeleteRecord(r); err != nil {
			return wrap(err)
		}
	}
	return Result{Text: fmt.Sprintf("%d row(s) deleted.", len(rids))}
}

func (e *Engine) updateStmt(s *compiler.UpdateStmt) Result {
	if err := e.requireOpen(); err != nil {
		return errResult(err)
	}
	wrap := func(cause error) Result {
		return errResult(dberrors.Wrap(dberrors.KindUpdateRecordFailed, cause, func(x *dberrors.Error) { x.Table = s.Table }))
	}

	mgr, err := e.cur.OpenTable(s.Table)
	if err != nil {
		return wrap(err)
	}
	ts, _ := e.cur.Schema(s.Table)
	fields := mgr.Fields()
	pk := mgr.PrimaryKeyField()

	rids, err := candidateRIDs(mgr, fields, s.Where, s.Table)
	if err != nil {
		return wrap(err)
	}

	type assignment struct {
		f   *field.Desc
		val []byte
	}
	assigns := make([]assignment, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		f := findFieldDesc(fields, a.Field)
		if f == nil {
			return errResult(dberrors.New(dberrors.KindInvalidFieldName, func(x *dberrors.Error) { x.Field = a.Field }))
		}
		enc, status := field.EncodeText(a.Value, f.Type, f.Length)
		if status != field.ParseOK {
			return wrap(literalStatusErr(status, a.Value))
		}
		if field.IsNull(enc) && f.NotNull {
			return wrap(dberrors.New(dberrors.KindNotNullExpected, func(x *dberrors.Error) { x.Field = f.Name }))
		}
		assigns = append(assigns, assignment{f: f, val: enc})
	}
	changes := func(id uint64) bool {
		for _, a := range assigns {
			if a.f.ID == id {
				return true
			}
		}
		return false
	}

	// Validate every row before mutating any (see file doc comment).
	for _, r := range rids {
		rec, err := mgr.ReadRecord(r)
		if err != nil {
			return wrap(err)
		}
		values := make([][]byte, len(fields))
		off := 0
		for i, f := range fields {
			values[i] = rec[off : off+int(f.Length)]
			off += int(f.Length)
		}
		for _, a := range assigns {
			for i, f := range fields {
				if f.ID == a.f.ID {
					values[i] = a.val
				}
			}
		}

		if pk != nil && changes(pk.ID) {
			pkIdx := -1
			for i, f := range fields {
				if f.ID == pk.ID {
					pkIdx = i
				}
			}
			// Every updated row gets the same literal, so more than one
			// row would end up sharing the new key.
			if len(rids) > 1 {
				return wrap(dberrors.New(dberrors.KindDuplicatePrimaryKey, func(x *dberrors.Error) { x.Value = field.Render(values[pkIdx], pk.Type) }))
			}
			existing, err := mgr.FindEqual(pk.ID, values[pkIdx])
			if err != nil {
				return wrap(err)
			}
			for _, ex := range existing {
				if !rid.Equal(ex, r) {
					return wrap(dberrors.New(dberrors.KindDuplicatePrimaryKey, func(x *dberrors.Error) { x.Value = field.Render(values[pkIdx], pk.Type) }))
				}
			}

			for _, childName := range e.cur.TableNames() {
				childTS, _ := e.cur.Schema(childName)
				for _, fk := range childTS.ForeignKeys {
					if fk.RefTable != s.Table || fk.RefField != pk.Name {
						continue
					}
					childMgr, err := e.cur.OpenTable(childName)
					if err != nil {
						return wrap(err)
					}
					srcF := findFieldDesc(childMgr.Fields(), fk.Field)
					oldPK, err := mgr.Value(r, pk.ID)
					if err != nil {
						return wrap(err)
					}
					found, err := childMgr.FindEqual(srcF.ID, oldPK)
					if err != nil {
						return wrap(err)
					}
					if len(found) > 0 {
						return errResult(dberrors.New(dberrors.KindRecordReferenced, func(x *dberrors.Error) { x.RefTable = childName }))
					}
				}
			}
		}

		// A FOREIGN KEY target is only re-checked when the constrained field
		// itself changes (spec.md's UPDATE open question: preserved as-is).
		for _, fk := range ts.ForeignKeys {
			fkF := findFieldDesc(fields, fk.Field)
			if fkF == nil || !changes(fkF.ID) {
				continue
			}
			var fv []byte
			for i, f := range fields {
				if f.ID == fkF.ID {
					fv = values[i]
				}
			}
			if field.IsNull(fv) {
				continue
			}
			refMgr, err := e.cur.OpenTable(fk.RefTable)
			if err != nil {
				return wrap(err)
			}
			refF := findFieldDesc(refMgr.Fields(), fk.RefField)
			found, err := refMgr.FindEqual(refF.ID, fv)
			if err != nil {
				return wrap(err)
			}
			if len(found) == 0 {
				return wrap(dberrors.New(dberrors.KindReferencedNotExists, func(x *dberrors.Error) {
					x.Value, x.RefTable = field.Render(fv, refF.Type), fk.RefTable
				}))
			}
		}

		if err := evalChecks(ts.Checks, fields, values); err != nil {
			return wrap(err)
		}
	}

	for _, r := range rids {
		for _, a := range assigns {
			if _, err := mgr.UpdateField(r, a.f.ID, a.val); err != nil {
				return wrap(err)
			}
		}
	}
	return Result{Text: fmt.Sprintf("%d row(s) updated.", len(rids))}
}

package table

import (
	"testing"

	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/index"
	"github.com/jamishoo-go/oursqlgo/internal/rid"
)

func mustFields(t *testing.T) []*field.Desc {
	t.Helper()
	id, err := field.NewDesc(1, field.TypeI32, 0, true, true, "id")
	if err != nil {
		t.Fatalf("id desc: %s", err)
	}
	name, err := field.NewDesc(2, field.TypeChar, 16, false, false, "name")
	if err != nil {
		t.Fatalf("name desc: %s", err)
	}
	return []*field.Desc{id, name}
}

func encOrFatal(t *testing.T, s string, typ field.Type, length uint64) []byte {
	t.Helper()
	enc, status := field.EncodeText(s, typ, length)
	if status != field.ParseOK {
		t.Fatalf("encoding %q: %v", s, status)
	}
	return enc
}

func TestManagerCreateInsertRead(t *testing.T) {
	dir := t.TempDir()
	m, err := Create(dir, "people", mustFields(t))
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer m.Close()

	idVal := encOrFatal(t, "1", field.TypeI32, 5)
	nameVal := encOrFatal(t, "ada", field.TypeChar, 17)
	r, err := m.InsertRecord([][]byte{idVal, nameVal})
	if err != nil {
		t.Fatalf("insert: %s", err)
	}

	rec, err := m.ReadRecord(r)
	if err != nil {
		t.Fatalf("read: %s", err)
	}
	if got := field.Render(rec[0:5], field.TypeI32); got != "1" {
		t.Fatalf("expected id 1, got %s", got)
	}
	if got := field.Render(rec[5:22], field.TypeChar); got != "'ada'" {
		t.Fatalf("expected name 'ada', got %s", got)
	}
}

func TestManagerDeleteFreesSlot(t *testing.T) {
	dir := t.TempDir()
	m, err := Create(dir, "people", mustFields(t))
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer m.Close()

	r, err := m.InsertRecord([][]byte{
		encOrFatal(t, "1", field.TypeI32, 5),
		encOrFatal(t, "ada", field.TypeChar, 17),
	})
	if err != nil {
		t.Fatalf("insert: %s", err)
	}
	if err := m.DeleteRecord(r); err != nil {
		t.Fatalf("delete: %s", err)
	}
	if _, err := m.ReadRecord(r); err == nil {
		t.Fatalf("expected error reading a deleted record")
	}

	// The freed slot should be reused by the next insert rather than
	// growing the table with a new page.
	r2, err := m.InsertRecord([][]byte{
		encOrFatal(t, "2", field.TypeI32, 5),
		encOrFatal(t, "bo", field.TypeChar, 17),
	})
	if err != nil {
		t.Fatalf("insert after delete: %s", err)
	}
	if r2.PageID != r.PageID || r2.SlotID != r.SlotID {
		t.Fatalf("expected reuse of freed slot %v, got %v", r, r2)
	}
}

func TestManagerUpdateField(t *testing.T) {
	dir := t.TempDir()
	m, err := Create(dir, "people", mustFields(t))
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer m.Close()

	r, err := m.InsertRecord([][]byte{
		encOrFatal(t, "1", field.TypeI32, 5),
		encOrFatal(t, "ada", field.TypeChar, 17),
	})
	if err != nil {
		t.Fatalf("insert: %s", err)
	}

	old, err := m.UpdateField(r, 2, encOrFatal(t, "grace", field.TypeChar, 17))
	if err != nil {
		t.Fatalf("update: %s", err)
	}
	if got := field.Render(old, field.TypeChar); got != "'ada'" {
		t.Fatalf("expected old value 'ada', got %s", got)
	}

	rec, err := m.ReadRecord(r)
	if err != nil {
		t.Fatalf("read: %s", err)
	}
	if got := field.Render(rec[5:22], field.TypeChar); got != "'grace'" {
		t.Fatalf("expected updated name 'grace', got %s", got)
	}
}

func TestManagerTraverseRecordsVisitsAllLiveRows(t *testing.T) {
	dir := t.TempDir()
	m, err := Create(dir, "people", mustFields(t))
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer m.Close()

	names := []string{"ada", "bo", "cy", "di", "ed"}
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	for _, name := range names {
		r, err := m.InsertRecord([][]byte{
			encOrFatal(t, "1", field.TypeI32, 5),
			encOrFatal(t, name, field.TypeChar, 17),
		})
		if err != nil {
			t.Fatalf("insert %s: %s", name, err)
		}
		if name == "bo" {
			if err := m.DeleteRecord(r); err != nil {
				t.Fatalf("delete: %s", err)
			}
			delete(want, name)
		}
	}

	seen := map[string]bool{}
	err = m.TraverseRecords(func(_ rid.RID, rec []byte) error {
		rendered := field.Render(rec[5:22], field.TypeChar)
		seen[rendered[1:len(rendered)-1]] = true
		return nil
	})
	if err != nil {
		t.Fatalf("traverse: %s", err)
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d live rows, got %d (%v)", len(want), len(seen), seen)
	}
	for n := range want {
		if !seen[n] {
			t.Fatalf("expected to see %q, did not", n)
		}
	}
}

func TestManagerIndexFindEqualAndRange(t *testing.T) {
	dir := t.TempDir()
	m, err := Create(dir, "people", mustFields(t))
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer m.Close()

	ids := []string{"3", "1", "4", "1", "5"}
	var rids []rid.RID
	for _, idStr := range ids {
		r, err := m.InsertRecord([][]byte{
			encOrFatal(t, idStr, field.TypeI32, 5),
			encOrFatal(t, "x", field.TypeChar, 17),
		})
		if err != nil {
			t.Fatalf("insert: %s", err)
		}
		rids = append(rids, r)
	}

	ix, err := index.Create(m.IndexPath(1), field.TypeI32, 5)
	if err != nil {
		t.Fatalf("index create: %s", err)
	}
	if err := m.CreateIndex(1, ix); err != nil {
		t.Fatalf("create index: %s", err)
	}

	eq, err := m.FindEqual(1, encOrFatal(t, "1", field.TypeI32, 5))
	if err != nil {
		t.Fatalf("find equal: %s", err)
	}
	if len(eq) != 2 {
		t.Fatalf("expected 2 matches for id=1, got %d", len(eq))
	}

	lo := encOrFatal(t, "1", field.TypeI32, 5)
	hi := encOrFatal(t, "4", field.TypeI32, 5)
	rg, err := m.FindRange(1, lo, hi, true, true)
	if err != nil {
		t.Fatalf("find range: %s", err)
	}
	if len(rg) != 4 {
		t.Fatalf("expected 4 matches in [1,4], got %d", len(rg))
	}
}

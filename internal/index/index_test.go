package index

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/rid"
)

func encOrFatal(t *testing.T, s string, typ field.Type, length uint64) []byte {
	t.Helper()
	enc, status := field.EncodeText(s, typ, length)
	if status != field.ParseOK {
		t.Fatalf("encoding %q: %v", s, status)
	}
	return enc
}

func TestTreeInsertAndSearchEqual(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.idx")
	tr, err := Create(path, field.TypeI32, 5)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer tr.Close()

	want := map[rid.RID]bool{}
	for i := 0; i < 3; i++ {
		r := rid.RID{PageID: uint64(i + 1), SlotID: 0}
		if err := tr.Insert(encOrFatal(t, "7", field.TypeI32, 5), r); err != nil {
			t.Fatalf("insert: %s", err)
		}
		want[r] = true
	}
	if err := tr.Insert(encOrFatal(t, "9", field.TypeI32, 5), rid.RID{PageID: 9, SlotID: 0}); err != nil {
		t.Fatalf("insert: %s", err)
	}

	got, err := tr.SearchEqual(encOrFatal(t, "7", field.TypeI32, 5))
	if err != nil {
		t.Fatalf("search: %s", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d matches for duplicate value 7, got %d", len(want), len(got))
	}
	for _, r := range got {
		if !want[r] {
			t.Fatalf("unexpected RID %v in results", r)
		}
	}
}

func TestTreeSplitsAcrossManyInserts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.idx")
	tr, err := Create(path, field.TypeI32, 5)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer tr.Close()

	const n = 500
	for i := 0; i < n; i++ {
		r := rid.RID{PageID: uint64(i + 1), SlotID: 0}
		val := encOrFatal(t, strconv.Itoa(i), field.TypeI32, 5)
		if err := tr.Insert(val, r); err != nil {
			t.Fatalf("insert %d: %s", i, err)
		}
	}

	lo := encOrFatal(t, "100", field.TypeI32, 5)
	hi := encOrFatal(t, "200", field.TypeI32, 5)
	got, err := tr.SearchRange(lo, hi, true, true)
	if err != nil {
		t.Fatalf("range search: %s", err)
	}
	if len(got) != 101 {
		t.Fatalf("expected 101 matches in [100,200], got %d", len(got))
	}
}

func TestTreeDeleteRemovesExactEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.idx")
	tr, err := Create(path, field.TypeI32, 5)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer tr.Close()

	val := encOrFatal(t, "42", field.TypeI32, 5)
	r1 := rid.RID{PageID: 1, SlotID: 0}
	r2 := rid.RID{PageID: 2, SlotID: 0}
	if err := tr.Insert(val, r1); err != nil {
		t.Fatalf("insert: %s", err)
	}
	if err := tr.Insert(val, r2); err != nil {
		t.Fatalf("insert: %s", err)
	}
	if err := tr.Delete(val, r1); err != nil {
		t.Fatalf("delete: %s", err)
	}

	got, err := tr.SearchEqual(val)
	if err != nil {
		t.Fatalf("search: %s", err)
	}
	if len(got) != 1 || got[0] != r2 {
		t.Fatalf("expected only %v to remain, got %v", r2, got)
	}
}

func TestTreeRangeExclusiveBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.idx")
	tr, err := Create(path, field.TypeI32, 5)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer tr.Close()

	for i := 1; i <= 5; i++ {
		r := rid.RID{PageID: uint64(i), SlotID: 0}
		if err := tr.Insert(encOrFatal(t, strconv.Itoa(i), field.TypeI32, 5), r); err != nil {
			t.Fatalf("insert: %s", err)
		}
	}

	lo := encOrFatal(t, "1", field.TypeI32, 5)
	hi := encOrFatal(t, "5", field.TypeI32, 5)
	got, err := tr.SearchRange(lo, hi, false, false)
	if err != nil {
		t.Fatalf("range search: %s", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 matches in (1,5), got %d", len(got))
	}
}

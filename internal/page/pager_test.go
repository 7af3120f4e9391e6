package page

import (
	"path/filepath"
	"testing"
)

func TestPagerNewPageThenGetPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.db")
	pf, err := Create(path, DefaultPageSize)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	pager := NewPager(pf, 2)
	defer pager.Close()

	id, content := pager.NewPage()
	copy(content, "payload")
	pager.MarkDirty(id)

	got, err := pager.GetPage(id)
	if err != nil {
		t.Fatalf("get: %s", err)
	}
	if string(got[:7]) != "payload" {
		t.Fatalf("expected cached content to round-trip, got %q", got[:7])
	}
}

func TestPagerEvictionWritesBackDirtyFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.db")
	pf, err := Create(path, DefaultPageSize)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	pager := NewPager(pf, 1)

	id1, content1 := pager.NewPage()
	copy(content1, "first")
	pager.MarkDirty(id1)

	// A second page with a tiny cache capacity forces id1 out, which must
	// be written back through the file rather than silently dropped.
	id2, _ := pager.NewPage()
	_ = id2

	if err := pager.Close(); err != nil {
		t.Fatalf("close: %s", err)
	}

	reopenedFile, size := Open(path)
	if reopenedFile == nil {
		t.Fatalf("expected reopen to succeed")
	}
	reopenedPager := NewPager(reopenedFile, 2)
	defer reopenedPager.Close()
	buf, err := reopenedPager.GetPage(id1)
	if err != nil {
		t.Fatalf("get after reopen: %s", err)
	}
	if string(buf[:5]) != "first" {
		t.Fatalf("expected evicted dirty page to have been persisted, got %q", buf[:5])
	}
	_ = size
}

func TestPagerFlushPersistsWithoutClosing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.db")
	pf, err := Create(path, DefaultPageSize)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	pager := NewPager(pf, 4)
	defer pager.Close()

	id, content := pager.NewPage()
	copy(content, "flushed")
	pager.MarkDirty(id)
	if err := pager.Flush(); err != nil {
		t.Fatalf("flush: %s", err)
	}

	out := make([]byte, pf.PageSize())
	if err := pf.ReadPage(id, out); err != nil {
		t.Fatalf("read: %s", err)
	}
	if string(out[:7]) != "flushed" {
		t.Fatalf("expected flush to persist the dirty page, got %q", out[:7])
	}
}

package page

import (
	"path/filepath"
	"testing"
)

func TestCreateThenOpenRecoversHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.db")
	pf, err := Create(path, DefaultPageSize)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	buf := make([]byte, DefaultPageSize)
	copy(buf, "hello")
	if err := pf.WritePage(1, buf); err != nil {
		t.Fatalf("write: %s", err)
	}
	if err := pf.Close(); err != nil {
		t.Fatalf("close: %s", err)
	}

	reopened, size := Open(path)
	if reopened == nil {
		t.Fatalf("expected reopen to succeed")
	}
	if size != DefaultPageSize {
		t.Fatalf("expected page size %d, got %d", DefaultPageSize, size)
	}
	if reopened.NumPages() != 2 {
		t.Fatalf("expected 2 pages (0 and 1), got %d", reopened.NumPages())
	}

	out := make([]byte, DefaultPageSize)
	if err := reopened.ReadPage(1, out); err != nil {
		t.Fatalf("read: %s", err)
	}
	if string(out[:5]) != "hello" {
		t.Fatalf("expected to read back written content, got %q", out[:5])
	}
}

func TestOpenMissingFileReturnsZeroPageSize(t *testing.T) {
	pf, size := Open(filepath.Join(t.TempDir(), "missing.db"))
	if pf != nil || size != 0 {
		t.Fatalf("expected a missing file to report (nil, 0), got (%v, %d)", pf, size)
	}
}

func TestWritePageBeyondCurrentCountRatchetsUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.db")
	pf, err := Create(path, DefaultPageSize)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer pf.Close()

	buf := make([]byte, DefaultPageSize)
	if err := pf.WritePage(5, buf); err != nil {
		t.Fatalf("write: %s", err)
	}
	if pf.NumPages() != 6 {
		t.Fatalf("expected page count to ratchet up to 6, got %d", pf.NumPages())
	}
}

func TestAllocatePageReturnsNextUnusedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.db")
	pf, err := Create(path, DefaultPageSize)
	if err != nil {
		t.Fatalf("create: %s", err)
	}
	defer pf.Close()

	if got := pf.AllocatePage(); got != 1 {
		t.Fatalf("expected first allocatable page to be 1, got %d", got)
	}
	buf := make([]byte, DefaultPageSize)
	pf.WritePage(1, buf)
	if got := pf.AllocatePage(); got != 2 {
		t.Fatalf("expected next allocatable page to be 2, got %d", got)
	}
}

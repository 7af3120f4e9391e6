package buffer

import "testing"

func TestCacheGetMiss(t *testing.T) {
	c := New(2)
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestCachePutThenGet(t *testing.T) {
	c := New(2)
	c.Put(1, []byte("a"))
	v, ok := c.Get(1)
	if !ok || string(v) != "a" {
		t.Fatalf("expected to get back what was put, got %q ok=%v", v, ok)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put(1, []byte("a"))
	c.Put(2, []byte("b"))
	// Touch 1 so 2 becomes the least-recently-used frame.
	c.Get(1)
	evicted := c.Put(3, []byte("c"))
	if evicted == nil || evicted.PageID != 2 {
		t.Fatalf("expected page 2 to be evicted, got %+v", evicted)
	}
	if _, ok := c.Get(2); ok {
		t.Fatalf("expected page 2 to be gone from the cache")
	}
	if _, ok := c.Get(1); !ok {
		t.Fatalf("expected page 1 to still be cached")
	}
}

func TestCacheEvictionReportsDirtyBit(t *testing.T) {
	c := New(1)
	c.Put(1, []byte("a"))
	c.MarkDirty(1)
	evicted := c.Put(2, []byte("b"))
	if evicted == nil || !evicted.Dirty {
		t.Fatalf("expected the evicted dirty page to be reported, got %+v", evicted)
	}
}

func TestCacheInvalidateDropsWithoutWriteback(t *testing.T) {
	c := New(2)
	c.Put(1, []byte("a"))
	c.MarkDirty(1)
	c.Invalidate(1)
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected page 1 to be gone after invalidate")
	}
}

func TestCacheTraverseDirtyClearsBit(t *testing.T) {
	c := New(2)
	c.Put(1, []byte("a"))
	c.Put(2, []byte("b"))
	c.MarkDirty(1)

	var visited []uint64
	err := c.TraverseDirty(func(id uint64, content []byte) error {
		visited = append(visited, id)
		return nil
	})
	if err != nil {
		t.Fatalf("traverse: %s", err)
	}
	if len(visited) != 1 || visited[0] != 1 {
		t.Fatalf("expected to visit only the dirty page 1, got %v", visited)
	}

	visited = nil
	c.TraverseDirty(func(id uint64, content []byte) error {
		visited = append(visited, id)
		return nil
	})
	if len(visited) != 0 {
		t.Fatalf("expected the dirty bit to be cleared after the first traversal, got %v", visited)
	}
}

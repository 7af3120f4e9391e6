package page

import (
	"fmt"

	"github.com/jamishoo-go/oursqlgo/internal/buffer"
)

// Pager combines a paged File with a buffered LRU cache, giving table and
// index managers a single "get this page, I may write to it" API. This is
// the glue spec.md §4.2 describes between the paged file and its callers:
// evictions and closes write dirty frames back through the File.
type Pager struct {
	file  *File
	cache *buffer.Cache
}

// NewPager wraps an already-open File with a Cache of the given capacity.
func NewPager(f *File, capacity int) *Pager {
	return &Pager{file: f, cache: buffer.New(capacity)}
}

// PageSize returns the underlying file's fixed page size.
func (p *Pager) PageSize() uint64 {
	return p.file.PageSize()
}

// NumPages returns the underlying file's persisted page count.
func (p *Pager) NumPages() uint64 {
	return p.file.NumPages()
}

// GetPage returns the content of page id, loading it from disk on a cache
// miss and evicting (writing back if dirty) the least-recently-used frame
// if the cache is full.
func (p *Pager) GetPage(id uint64) ([]byte, error) {
	if v, ok := p.cache.Get(id); ok {
		return v, nil
	}
	buf := make([]byte, p.file.PageSize())
	if err := p.file.ReadPage(id, buf); err != nil {
		return nil, err
	}
	if evicted := p.cache.Put(id, buf); evicted != nil && evicted.Dirty {
		if err := p.file.WritePage(evicted.PageID, evicted.Content); err != nil {
			return nil, fmt.Errorf("page: evict write-back page %d: %w", evicted.PageID, err)
		}
	}
	return buf, nil
}

// NewPage allocates a fresh page, zero-fills it, and caches it as dirty so
// it is durable by the next flush.
func (p *Pager) NewPage() (id uint64, content []byte) {
	id = p.file.AllocatePage()
	content = make([]byte, p.file.PageSize())
	if evicted := p.cache.Put(id, content); evicted != nil && evicted.Dirty {
		p.file.WritePage(evicted.PageID, evicted.Content)
	}
	p.cache.MarkDirty(id)
	// Reserve the page number immediately so a second NewPage call before
	// this page is flushed does not hand out the same id twice.
	p.file.WritePage(id, content)
	return id, content
}

// MarkDirty flags a cached page as needing write-back before eviction or
// close. Callers mutate the slice returned by GetPage in place, then call
// MarkDirty with its id.
func (p *Pager) MarkDirty(id uint64) {
	p.cache.MarkDirty(id)
}

// Flush writes every dirty frame back to the file.
func (p *Pager) Flush() error {
	return p.cache.TraverseDirty(func(id uint64, content []byte) error {
		return p.file.WritePage(id, content)
	})
}

// Close flushes outstanding writes and closes the underlying file.
func (p *Pager) Close() error {
	if err := p.Flush(); err != nil {
		return err
	}
	return p.file.Close()
}

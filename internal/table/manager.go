package table

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamishoo-go/oursqlgo/internal/dberrors"
	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/index"
	"github.com/jamishoo-go/oursqlgo/internal/page"
)

// bufferFrames is the LRU capacity of a table's page cache. spec.md's
// open question on buffer capacity says correctness does not depend on
// the exact number; 64 comfortably covers this engine's small working
// sets without implementers needing to tune it (see DESIGN.md).
const bufferFrames = 64

// Manager owns one table's .tb file plus the Index managers attached to
// its indexed fields (spec.md §4.4).
type Manager struct {
	pager  *page.Pager
	path   string
	desc   *descriptor
	fields []*field.Desc

	dir       string
	name      string
	indexes   map[uint64]*index.Tree
}

func tablePath(dir, name string) string {
	return filepath.Join(dir, name+".tb")
}

// Create lays out a brand-new table file: descriptor, field descriptors,
// one empty map page, and one empty record page, per spec.md §3.
func Create(dir, name string, fields []*field.Desc) (*Manager, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("table: %s needs at least one field", name)
	}
	pageSize := uint64(page.DefaultPageSize)
	if uint64(len(fields)) > maxFieldsPerPage(pageSize) {
		return nil, fmt.Errorf("table: %s has too many fields for one descriptor page", name)
	}
	var recordLength uint64
	for _, f := range fields {
		recordLength += f.RecordLength()
	}
	path := tablePath(dir, name)
	pf, err := page.Create(path, pageSize)
	if err != nil {
		return nil, err
	}
	pager := page.NewPager(pf, bufferFrames)

	rpp := recordsPerPage(pageSize, recordLength)
	if rpp == 0 {
		pager.Close()
		os.Remove(path)
		return nil, fmt.Errorf("table: %s record length %d too large for page size %d", name, recordLength, pageSize)
	}
	bitsPerMapPage := (pageSize - pageHeaderSize) * 8

	m := &Manager{
		pager:  pager,
		path:   path,
		fields: fields,
		dir:    dir,
		name:   name,
		desc: &descriptor{
			Name:           name,
			FieldCount:     uint64(len(fields)),
			BitsPerMapPage: bitsPerMapPage,
			RecordLength:   recordLength,
			RecordsPerPage: rpp,
			LastMapPage:    PageFirstMap,
			LastRecordPage: PageFirstRecord,
			NextAutoID:     1,
		},
		indexes: map[uint64]*index.Tree{},
	}

	if err := m.writeDescriptorPage(); err != nil {
		return nil, err
	}
	if err := m.writeFieldDescriptorsPage(); err != nil {
		return nil, err
	}
	// First map page: one chunk, all bits initially clear except the bit
	// for the first record page, which starts out empty (free).
	mapBuf := m.mustGetPage(PageFirstMap)
	writePageHeader(mapBuf, pageHeader{Own: PageFirstMap, Next: noPage, Prev: noPage})
	m.pager.MarkDirty(PageFirstMap)
	Bitmap{Bytes: mapBuf[mapBitmapOffset():]}.Set(PageFirstRecord)

	recBuf := m.mustGetPage(PageFirstRecord)
	writePageHeader(recBuf, pageHeader{Own: PageFirstRecord, Next: noPage, Prev: noPage})
	sb := Bitmap{Bytes: recBuf[slotBitmapOffset():recordsOffset(rpp)]}
	for i := uint64(0); i < rpp; i++ {
		sb.Set(i)
	}
	m.pager.MarkDirty(PageFirstRecord)

	if err := m.pager.Flush(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) mustGetPage(id uint64) []byte {
	b, err := m.pager.GetPage(id)
	if err != nil {
		panic(err) // cannot happen: page was just written through this pager
	}
	return b
}

// Open opens an existing table file and reconstructs its in-memory
// layout state from the descriptor and field descriptor pages.
func Open(dir, name string) (*Manager, error) {
	path := tablePath(dir, name)
	pf, pageSize := page.Open(path)
	if pf == nil {
		return nil, dberrors.New(dberrors.KindOpenTableFailed, func(e *dberrors.Error) { e.Table = name })
	}
	pager := page.NewPager(pf, bufferFrames)
	m := &Manager{pager: pager, path: path, dir: dir, name: name, indexes: map[uint64]*index.Tree{}}
	descBuf, err := pager.GetPage(PageTableDescriptor)
	if err != nil {
		return nil, err
	}
	m.desc = decodeDescriptor(descBuf)
	fieldsBuf, err := pager.GetPage(PageFieldDescriptors)
	if err != nil {
		return nil, err
	}
	m.fields = make([]*field.Desc, m.desc.FieldCount)
	for i := uint64(0); i < m.desc.FieldCount; i++ {
		rec := fieldsBuf[i*field.DescRecordSize : (i+1)*field.DescRecordSize]
		fd, err := field.ParseDesc(rec)
		if err != nil {
			return nil, err
		}
		m.fields[i] = fd
	}
	_ = pageSize
	return m, nil
}

// Close flushes dirty pages and closes the table file (and every
// attached index).
func (m *Manager) Close() error {
	for _, ix := range m.indexes {
		if err := ix.Close(); err != nil {
			return err
		}
	}
	return m.pager.Close()
}

// Remove deletes the table's file plus every attached index file. The
// table must already be closed.
func (m *Manager) Remove() error {
	for fieldID := range m.indexes {
		index.Remove(indexPath(m.dir, m.name, fieldID))
	}
	return os.Remove(m.path)
}

// Fields returns the table's field descriptors in declaration order.
func (m *Manager) Fields() []*field.Desc {
	return m.fields
}

// PrimaryKeyField returns the table's single primary key field, which
// every table has (spec.md §3: synthesized if not user-declared).
func (m *Manager) PrimaryKeyField() *field.Desc {
	for _, f := range m.fields {
		if f.IsPrimaryKey {
			return f
		}
	}
	return nil
}

func (m *Manager) fieldByID(id uint64) *field.Desc {
	for _, f := range m.fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (m *Manager) fieldOffset(fieldID uint64) (int, *field.Desc) {
	off := 0
	for _, f := range m.fields {
		if f.ID == fieldID {
			return off, f
		}
		off += int(f.Length)
	}
	return -1, nil
}

func (m *Manager) writeDescriptorPage() error {
	buf := encodeDescriptor(m.desc)
	page, err := m.pager.GetPage(PageTableDescriptor)
	if err != nil {
		return err
	}
	copy(page, buf)
	m.pager.MarkDirty(PageTableDescriptor)
	return nil
}

func (m *Manager) writeFieldDescriptorsPage() error {
	buf, err := m.pager.GetPage(PageFieldDescriptors)
	if err != nil {
		return err
	}
	for i, f := range m.fields {
		copy(buf[i*field.DescRecordSize:(i+1)*field.DescRecordSize], f.Encode())
	}
	m.pager.MarkDirty(PageFieldDescriptors)
	return nil
}

// NextAutoID returns the next value of the synthesized primary key
// counter and persists the advance, per spec.md §4.3's
// add_primary_key/unique_counter.
func (m *Manager) NextAutoID() (uint64, error) {
	v := m.desc.NextAutoID
	m.desc.NextAutoID++
	if err := m.writeDescriptorPage(); err != nil {
		return 0, err
	}
	return v, nil
}

// AttachIndex registers an already-open Index manager for fieldID so
// inserts/deletes/updates keep it in sync.
func (m *Manager) AttachIndex(fieldID uint64, ix *index.Tree) {
	m.indexes[fieldID] = ix
}

// Index returns the attached Index manager for fieldID, if any.
func (m *Manager) Index(fieldID uint64) (*index.Tree, bool) {
	ix, ok := m.indexes[fieldID]
	return ix, ok
}

// DetachIndex unregisters fieldID's Index manager (e.g. for DROP INDEX)
// and returns it so the caller can close and remove its file.
func (m *Manager) DetachIndex(fieldID uint64) (*index.Tree, bool) {
	ix, ok := m.indexes[fieldID]
	if ok {
		delete(m.indexes, fieldID)
	}
	return ix, ok
}

func indexPath(dir, tableName string, fieldID uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%d.idx", tableName, fieldID))
}

// IndexPath exposes indexPath for callers (executor, CREATE/DROP INDEX)
// that need to name the file on disk.
func (m *Manager) IndexPath(fieldID uint64) string {
	return indexPath(m.dir, m.name, fieldID)
}

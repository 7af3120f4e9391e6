package table

import (
	"fmt"

	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/index"
	"github.com/jamishoo-go/oursqlgo/internal/rid"
)

// recordSize returns how many bytes a single encoded record occupies.
func (m *Manager) recordSize() uint64 {
	return m.desc.RecordLength
}

func (m *Manager) slotBitmap(buf []byte) Bitmap {
	return Bitmap{Bytes: buf[slotBitmapOffset():recordsOffset(m.desc.RecordsPerPage)]}
}

func (m *Manager) recordOffset(slot uint64) uint64 {
	return recordsOffset(m.desc.RecordsPerPage) + slot*m.recordSize()
}

// findFreeRecordPage walks the chained page-level bitmap looking for a
// record page with at least one free slot, per spec.md §4.4's insert
// algorithm. chunkIndex*BitsPerMapPage + bit gives the record page's raw
// id directly, since map chunks are laid out over the table file's own
// page-id space.
func (m *Manager) findFreeRecordPage() (uint64, bool) {
	cur := uint64(PageFirstMap)
	chunk := uint64(0)
	for cur != noPage {
		buf := m.mustGetPage(cur)
		hdr := readPageHeader(buf)
		bm := Bitmap{Bytes: buf[mapBitmapOffset():]}
		if i, ok := bm.FindFirstSet(m.desc.BitsPerMapPage); ok {
			return chunk*m.desc.BitsPerMapPage + i, true
		}
		cur = hdr.Next
		chunk++
	}
	return 0, false
}

// ensureMapPageForChunk walks (and, if needed, extends) the map page chain
// until it reaches the map page covering chunkIndex, allocating new map
// pages as the chain grows.
func (m *Manager) ensureMapPageForChunk(chunkIndex uint64) uint64 {
	cur := uint64(PageFirstMap)
	idx := uint64(0)
	for idx < chunkIndex {
		buf := m.mustGetPage(cur)
		hdr := readPageHeader(buf)
		if hdr.Next == noPage {
			newID, content := m.pager.NewPage()
			writePageHeader(content, pageHeader{Own: newID, Next: noPage, Prev: cur})
			m.pager.MarkDirty(newID)
			hdr.Next = newID
			writePageHeader(buf, hdr)
			m.pager.MarkDirty(cur)
			m.desc.LastMapPage = newID
			m.writeDescriptorPage()
			cur = newID
		} else {
			cur = hdr.Next
		}
		idx++
	}
	return cur
}

func (m *Manager) setMapBit(pageID uint64, free bool) {
	chunk := pageID / m.desc.BitsPerMapPage
	mapPage := m.ensureMapPageForChunk(chunk)
	buf := m.mustGetPage(mapPage)
	bm := Bitmap{Bytes: buf[mapBitmapOffset():]}
	bit := pageID - chunk*m.desc.BitsPerMapPage
	if free {
		bm.Set(bit)
	} else {
		bm.Clear(bit)
	}
	m.pager.MarkDirty(mapPage)
}

// allocateRecordPage appends a brand-new, all-free record page to the
// record page chain and links it in.
func (m *Manager) allocateRecordPage() uint64 {
	id, content := m.pager.NewPage()
	prev := m.desc.LastRecordPage
	writePageHeader(content, pageHeader{Own: id, Next: noPage, Prev: prev})
	sb := Bitmap{Bytes: content[slotBitmapOffset():recordsOffset(m.desc.RecordsPerPage)]}
	for i := uint64(0); i < m.desc.RecordsPerPage; i++ {
		sb.Set(i)
	}
	m.pager.MarkDirty(id)

	prevBuf := m.mustGetPage(prev)
	prevHdr := readPageHeader(prevBuf)
	prevHdr.Next = id
	writePageHeader(prevBuf, prevHdr)
	m.pager.MarkDirty(prev)

	m.desc.LastRecordPage = id
	m.writeDescriptorPage()
	m.setMapBit(id, true)
	return id
}

// InsertRecord writes values (one already-encoded byte slice per field, in
// field declaration order) into the first free slot the page-level bitmap
// finds, allocating a fresh record page when none has room, then keeps
// every attached index in sync. This is spec.md §4.4's insert_record.
func (m *Manager) InsertRecord(values [][]byte) (rid.RID, error) {
	if len(values) != len(m.fields) {
		return rid.Null, fmt.Errorf("table: %s expected %d values, got %d", m.name, len(m.fields), len(values))
	}
	for i, f := range m.fields {
		if uint64(len(values[i])) != f.Length {
			return rid.Null, fmt.Errorf("table: %s field %s expected %d bytes, got %d", m.name, f.Name, f.Length, len(values[i]))
		}
	}

	pageID, ok := m.findFreeRecordPage()
	if !ok {
		pageID = m.allocateRecordPage()
	}
	buf := m.mustGetPage(pageID)
	sb := m.slotBitmap(buf)
	slot, ok := sb.FindFirstSet(m.desc.RecordsPerPage)
	if !ok {
		return rid.Null, fmt.Errorf("table: %s page %d reported free slot but has none", m.name, pageID)
	}
	off := m.recordOffset(slot)
	cursor := off
	for _, v := range values {
		copy(buf[cursor:cursor+uint64(len(v))], v)
		cursor += uint64(len(v))
	}
	sb.Clear(slot)
	m.pager.MarkDirty(pageID)
	if !sb.Any(m.desc.RecordsPerPage) {
		m.setMapBit(pageID, false)
	}

	r := rid.RID{PageID: pageID, SlotID: slot}
	for i, f := range m.fields {
		if ix, ok := m.indexes[f.ID]; ok {
			if err := ix.Insert(values[i], r); err != nil {
				return rid.Null, err
			}
		}
	}
	return r, nil
}

// ReadRecord returns the raw encoded bytes of the record at r, or an error
// if the slot is empty.
func (m *Manager) ReadRecord(r rid.RID) ([]byte, error) {
	buf := m.mustGetPage(r.PageID)
	sb := m.slotBitmap(buf)
	if sb.Get(r.SlotID) {
		return nil, fmt.Errorf("table: %s has no record at %v", m.name, r)
	}
	off := m.recordOffset(r.SlotID)
	out := make([]byte, m.recordSize())
	copy(out, buf[off:off+m.recordSize()])
	return out, nil
}

// Value returns the value of one field of the record at r.
func (m *Manager) Value(r rid.RID, fieldID uint64) ([]byte, error) {
	rec, err := m.ReadRecord(r)
	if err != nil {
		return nil, err
	}
	off, f := m.fieldOffset(fieldID)
	if f == nil {
		return nil, fmt.Errorf("table: %s has no field id %d", m.name, fieldID)
	}
	return rec[off : off+int(f.Length)], nil
}

// DeleteRecord frees r's slot, flips the page-level bitmap bit back on,
// and removes r from every attached index. This is spec.md §4.4's
// delete_record.
func (m *Manager) DeleteRecord(r rid.RID) error {
	rec, err := m.ReadRecord(r)
	if err != nil {
		return err
	}
	buf := m.mustGetPage(r.PageID)
	sb := m.slotBitmap(buf)
	sb.Set(r.SlotID)
	m.pager.MarkDirty(r.PageID)
	m.setMapBit(r.PageID, true)

	for i, f := range m.fields {
		if ix, ok := m.indexes[f.ID]; ok {
			off, _ := m.fieldOffset(f.ID)
			if err := ix.Delete(rec[off:off+int(f.Length)], r); err != nil {
				return err
			}
		}
		_ = i
	}
	return nil
}

// UpdateField overwrites one field of the record at r with newValue,
// read-modify-write, deleting and reinserting the field's index entry if
// it is indexed. This is spec.md §4.4's update_record applied to a single
// field; callers updating several fields of one record call it once per
// field.
func (m *Manager) UpdateField(r rid.RID, fieldID uint64, newValue []byte) ([]byte, error) {
	off, f := m.fieldOffset(fieldID)
	if f == nil {
		return nil, fmt.Errorf("table: %s has no field id %d", m.name, fieldID)
	}
	if uint64(len(newValue)) != f.Length {
		return nil, fmt.Errorf("table: %s field %s expected %d bytes, got %d", m.name, f.Name, f.Length, len(newValue))
	}
	buf := m.mustGetPage(r.PageID)
	recOff := m.recordOffset(r.SlotID)
	oldValue := make([]byte, f.Length)
	copy(oldValue, buf[recOff+uint64(off):recOff+uint64(off)+f.Length])
	copy(buf[recOff+uint64(off):recOff+uint64(off)+f.Length], newValue)
	m.pager.MarkDirty(r.PageID)

	if ix, ok := m.indexes[fieldID]; ok {
		if err := ix.Delete(oldValue, r); err != nil {
			return nil, err
		}
		if err := ix.Insert(newValue, r); err != nil {
			return nil, err
		}
	}
	return oldValue, nil
}

// TraverseRecords visits every occupied slot in record-page order, calling
// cb with each record's RID and raw encoded bytes. This is spec.md §4.4's
// full-table scan, also used by CreateIndex to backfill a new index.
func (m *Manager) TraverseRecords(cb func(rid.RID, []byte) error) error {
	cur := uint64(PageFirstRecord)
	for cur != noPage {
		buf := m.mustGetPage(cur)
		hdr := readPageHeader(buf)
		sb := m.slotBitmap(buf)
		for slot := uint64(0); slot < m.desc.RecordsPerPage; slot++ {
			if sb.Get(slot) {
				continue // free slot
			}
			off := m.recordOffset(slot)
			rec := buf[off : off+m.recordSize()]
			if err := cb(rid.RID{PageID: cur, SlotID: slot}, rec); err != nil {
				return err
			}
		}
		cur = hdr.Next
	}
	return nil
}

// CreateIndex backfills ix with every existing record's fieldID value and
// attaches it, so subsequent inserts/deletes/updates keep it current. This
// is spec.md §4.4's create_index, and is idempotent only in the sense that
// callers must not call it twice for the same fieldID without first
// removing the previous attachment.
func (m *Manager) CreateIndex(fieldID uint64, ix *index.Tree) error {
	off, f := m.fieldOffset(fieldID)
	if f == nil {
		return fmt.Errorf("table: %s has no field id %d", m.name, fieldID)
	}
	err := m.TraverseRecords(func(r rid.RID, rec []byte) error {
		return ix.Insert(rec[off:off+int(f.Length)], r)
	})
	if err != nil {
		return err
	}
	m.AttachIndex(fieldID, ix)
	return nil
}

// FindEqual returns every RID whose fieldID value equals key, using the
// attached index when one exists and falling back to a full scan
// otherwise (spec.md §4.4's find_records / §4.6.a's sargable selection).
func (m *Manager) FindEqual(fieldID uint64, key []byte) ([]rid.RID, error) {
	off, f := m.fieldOffset(fieldID)
	if f == nil {
		return nil, fmt.Errorf("table: %s has no field id %d", m.name, fieldID)
	}
	if ix, ok := m.indexes[fieldID]; ok {
		return ix.SearchEqual(key)
	}
	var out []rid.RID
	err := m.TraverseRecords(func(r rid.RID, rec []byte) error {
		if equalBytes(rec[off:off+int(f.Length)], key) {
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// FindRange returns every RID whose fieldID value falls within
// [lo, hi] (bounds optionally exclusive), using the attached index when
// one exists.
func (m *Manager) FindRange(fieldID uint64, lo, hi []byte, loInclusive, hiInclusive bool) ([]rid.RID, error) {
	off, f := m.fieldOffset(fieldID)
	if f == nil {
		return nil, fmt.Errorf("table: %s has no field id %d", m.name, fieldID)
	}
	if ix, ok := m.indexes[fieldID]; ok {
		return ix.SearchRange(lo, hi, loInclusive, hiInclusive)
	}
	var out []rid.RID
	err := m.TraverseRecords(func(r rid.RID, rec []byte) error {
		v := rec[off : off+int(f.Length)]
		if lo != nil {
			c := field.Compare(v, lo, f.Type, f.Length)
			if c < 0 || (c == 0 && !loInclusive) {
				return nil
			}
		}
		if hi != nil {
			c := field.Compare(v, hi, f.Type, f.Length)
			if c > 0 || (c == 0 && !hiInclusive) {
				return nil
			}
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

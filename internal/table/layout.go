package table

import (
	"encoding/binary"

	"github.com/jamishoo-go/oursqlgo/internal/field"
)

// Page indices assigned when a table file is first created. Later map and
// record pages are appended at whatever id the pager's AllocatePage
// hands out and linked into the chain via their own/next/prev headers.
const (
	PageTableDescriptor  = 1
	PageFieldDescriptors = 2
	PageFirstMap         = 3
	PageFirstRecord      = 4
)

// pageHeaderSize is spec.md §6's 24-byte (own_id, next_id, prev_id)
// header carried by every non-descriptor page.
const pageHeaderSize = 24

const noPage = ^uint64(0)

type pageHeader struct {
	Own, Next, Prev uint64
}

func readPageHeader(buf []byte) pageHeader {
	return pageHeader{
		Own:  binary.LittleEndian.Uint64(buf[0:8]),
		Next: binary.LittleEndian.Uint64(buf[8:16]),
		Prev: binary.LittleEndian.Uint64(buf[16:24]),
	}
}

func writePageHeader(buf []byte, h pageHeader) {
	binary.LittleEndian.PutUint64(buf[0:8], h.Own)
	binary.LittleEndian.PutUint64(buf[8:16], h.Next)
	binary.LittleEndian.PutUint64(buf[16:24], h.Prev)
}

// descriptor is the decoded content of the table descriptor page (page 1),
// matching spec.md §6 bit for bit except for the trailing NextAutoID
// field this implementation adds to persist the synthetic primary key
// counter across restarts (see DESIGN.md).
type descriptor struct {
	Name           string
	FieldCount     uint64
	BitsPerMapPage uint64
	RecordLength   uint64
	RecordsPerPage uint64
	LastMapPage    uint64
	LastRecordPage uint64
	NextAutoID     uint64
}

const (
	descNameLen = 512
	offFieldCount     = descNameLen
	offBitsPerMapPage = offFieldCount + 8
	offRecordLength   = offBitsPerMapPage + 8
	offRecordsPerPage = offRecordLength + 8
	offLastMapPage    = offRecordsPerPage + 8
	offLastRecordPage = offLastMapPage + 8
	offNextAutoID     = offLastRecordPage + 8
)

func encodeDescriptor(d *descriptor) []byte {
	buf := make([]byte, offNextAutoID+8)
	nb := []byte(d.Name)
	if len(nb) > descNameLen {
		nb = nb[:descNameLen]
	}
	copy(buf[0:descNameLen], nb)
	binary.LittleEndian.PutUint64(buf[offFieldCount:], d.FieldCount)
	binary.LittleEndian.PutUint64(buf[offBitsPerMapPage:], d.BitsPerMapPage)
	binary.LittleEndian.PutUint64(buf[offRecordLength:], d.RecordLength)
	binary.LittleEndian.PutUint64(buf[offRecordsPerPage:], d.RecordsPerPage)
	binary.LittleEndian.PutUint64(buf[offLastMapPage:], d.LastMapPage)
	binary.LittleEndian.PutUint64(buf[offLastRecordPage:], d.LastRecordPage)
	binary.LittleEndian.PutUint64(buf[offNextAutoID:], d.NextAutoID)
	return buf
}

func decodeDescriptor(buf []byte) *descriptor {
	name := string(buf[0:descNameLen])
	for i, c := range name {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	return &descriptor{
		Name:           name,
		FieldCount:     binary.LittleEndian.Uint64(buf[offFieldCount:]),
		BitsPerMapPage: binary.LittleEndian.Uint64(buf[offBitsPerMapPage:]),
		RecordLength:   binary.LittleEndian.Uint64(buf[offRecordLength:]),
		RecordsPerPage: binary.LittleEndian.Uint64(buf[offRecordsPerPage:]),
		LastMapPage:    binary.LittleEndian.Uint64(buf[offLastMapPage:]),
		LastRecordPage: binary.LittleEndian.Uint64(buf[offLastRecordPage:]),
		NextAutoID:     binary.LittleEndian.Uint64(buf[offNextAutoID:]),
	}
}

// maxFieldsPerPage bounds how many 256-byte field descriptors fit on one
// field-descriptor page. Tables needing more columns than this are
// rejected at CREATE TABLE time; spec.md does not describe chaining the
// field descriptor page, and no test scenario needs more than a handful
// of columns (see DESIGN.md).
func maxFieldsPerPage(pageSize uint64) uint64 {
	return pageSize / field.DescRecordSize
}

// recordsPerPage computes the largest N such that a record page's header,
// word-aligned slot bitmap, and N fixed-length records all fit within
// pageSize bytes.
func recordsPerPage(pageSize uint64, recordLength uint64) uint64 {
	n := (pageSize - pageHeaderSize) * 8 / (recordLength*8 + 1)
	if n == 0 {
		return 0
	}
	for n > 0 {
		used := pageHeaderSize + NumBitBytes(n) + n*recordLength
		if used <= pageSize {
			return n
		}
		n--
	}
	return 0
}

func slotBitmapOffset() uint64 {
	return pageHeaderSize
}

func recordsOffset(recordsPerPage uint64) uint64 {
	return pageHeaderSize + NumBitBytes(recordsPerPage)
}

func mapBitmapOffset() uint64 {
	return pageHeaderSize
}

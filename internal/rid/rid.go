// Package rid defines the record identifier used throughout the storage
// stack. A RID addresses a single record slot on a record page and stays
// valid for the lifetime of the record it names, independent of any other
// mutation happening elsewhere in the table.
package rid

import (
	"bytes"
	"encoding/binary"
)

// Size is the encoded length of a RID: two little-endian u64s.
const Size = 16

// Null is the sentinel RID meaning "no record". PageID 0 is never a valid
// record page, since record pages start at the table's first record page.
var Null = RID{PageID: 0, SlotID: 0}

// RID is the address of a record: the page it lives on and its slot index
// within that page.
type RID struct {
	PageID uint64
	SlotID uint64
}

// IsNull reports whether r is the sentinel RID.
func (r RID) IsNull() bool {
	return r.PageID == 0
}

// Encode writes r as 16 bytes, page id then slot id, both little-endian.
func (r RID) Encode() []byte {
	b := make([]byte, Size)
	binary.LittleEndian.PutUint64(b[0:8], r.PageID)
	binary.LittleEndian.PutUint64(b[8:16], r.SlotID)
	return b
}

// Decode reads a RID from its 16-byte encoding.
func Decode(b []byte) RID {
	return RID{
		PageID: binary.LittleEndian.Uint64(b[0:8]),
		SlotID: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// Compare orders RIDs by page id then slot id, giving the ascending
// tiebreak order used by composite (value, RID) index keys.
func Compare(a, b RID) int {
	if a.PageID != b.PageID {
		if a.PageID < b.PageID {
			return -1
		}
		return 1
	}
	if a.SlotID != b.SlotID {
		if a.SlotID < b.SlotID {
			return -1
		}
		return 1
	}
	return 0
}

// Equal reports whether a and b address the same record slot.
func Equal(a, b RID) bool {
	return bytes.Equal(a.Encode(), b.Encode())
}

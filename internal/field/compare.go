package field

import (
	"bytes"
	"encoding/binary"
)

// Compare orders two encoded values of the same type, used uniformly by
// index-key ordering, condition evaluation, sort, and group boundaries
// (spec.md §4.3). A null sorts before any non-null value of the same
// type; two nulls compare equal. char/uchar compare by memcmp over the
// payload; numerics are reinterpreted as the declared type.
func Compare(a, b []byte, t Type, length uint64) int {
	aNull, bNull := IsNull(a), IsNull(b)
	if aNull && bNull {
		return 0
	}
	if aNull {
		return -1
	}
	if bNull {
		return 1
	}
	ap, bp := a[1:], b[1:]
	switch t {
	case TypeChar, TypeUChar:
		return bytes.Compare(ap, bp)
	case TypeBool:
		return int(ap[0]) - int(bp[0])
	case TypeFloat:
		af, bf := getFloat32(ap), getFloat32(bp)
		return cmpFloat(float64(af), float64(bf))
	case TypeDouble:
		return cmpFloat(getFloat64(ap), getFloat64(bp))
	}
	if isUnsigned(t) {
		av, bv := getUint(ap, t), getUint(bp, t)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
		return 0
	}
	av, bv := getInt(ap, t), getInt(bp, t)
	if av < bv {
		return -1
	}
	if av > bv {
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// CompareKey orders composite (value, RID) index keys: primarily by value
// using Compare, with the RID (page id, then slot id) as a tiebreak so
// duplicates of the same value are ordered by RID (spec.md §3's
// "Composite key ordering"). aRID and bRID are the raw encoded RID bytes
// appended after the value in an index entry.
func CompareKey(aValue, aRID, bValue, bRID []byte, t Type, length uint64) int {
	if c := Compare(aValue, bValue, t, length); c != 0 {
		return c
	}
	for off := 0; off < 16; off += 8 {
		av, bv := binary.LittleEndian.Uint64(aRID[off:]), binary.LittleEndian.Uint64(bRID[off:])
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

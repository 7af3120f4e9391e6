// Package table implements the on-disk table manager spec.md §3/§4.4/§6
// describes: a table descriptor page, a field descriptor page, a chained
// page-level "has empty slot" bitmap, and chained record pages each
// carrying their own slot bitmap.
//
// Grounded on the teacher's page.go (the idea of a fixed-size page with a
// header and packed content) generalized to the slotted/bitmap layout
// spec.md requires instead of the teacher's own btree-of-whole-rows
// design, and on original_source/src/db_tablemanager.h for the chained
// bitmap semantics.
package table

// Bitmap is a thin, bit-for-bit view over a byte slice: bit i lives in
// byte i/8, bit i%8, packed LSB-first. This is spec.md §9's "Bitmap
// abstraction" wrapping manual bit twiddling while preserving the
// on-disk layout exactly.
type Bitmap struct {
	Bytes []byte
}

// NumBitBytes returns the byte length needed to hold n bits, rounded up
// to a multiple of 8 bytes ("word-aligned" per spec.md §3).
func NumBitBytes(n uint64) uint64 {
	b := (n + 7) / 8
	return ((b + 7) / 8) * 8
}

// Get reads bit i.
func (b Bitmap) Get(i uint64) bool {
	return b.Bytes[i/8]&(1<<(i%8)) != 0
}

// Set sets bit i to 1.
func (b Bitmap) Set(i uint64) {
	b.Bytes[i/8] |= 1 << (i % 8)
}

// Clear sets bit i to 0.
func (b Bitmap) Clear(i uint64) {
	b.Bytes[i/8] &^= 1 << (i % 8)
}

// Any reports whether any bit in [0, n) is set.
func (b Bitmap) Any(n uint64) bool {
	full := n / 8
	for i := uint64(0); i < full; i++ {
		if b.Bytes[i] != 0 {
			return true
		}
	}
	for i := full * 8; i < n; i++ {
		if b.Get(i) {
			return true
		}
	}
	return false
}

// FindFirstSet returns the lowest index in [0, n) with bit set to 1, or
// (0, false) if none is set.
func (b Bitmap) FindFirstSet(n uint64) (uint64, bool) {
	for i := uint64(0); i < n; i++ {
		if b.Get(i) {
			return i, true
		}
	}
	return 0, false
}

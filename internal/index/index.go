// Package index implements the B+-tree index manager spec.md §5
// describes: fixed-size 2KiB nodes holding composite (value, RID) keys,
// duplicate values supported by folding the RID into the key, and a
// linked list across leaves for ordered range scans.
//
// Grounded on the teacher's single-tree kv package (page-backed B-tree
// storing whole rows by key) generalized to a secondary index over one
// field's value, keyed by (value, RID) rather than by row, and on
// original_source/src/db_fieldindex.h for the duplicate-key and
// leaf-chain semantics.
package index

import (
	"encoding/binary"
	"fmt"

	"github.com/jamishoo-go/oursqlgo/internal/field"
	"github.com/jamishoo-go/oursqlgo/internal/page"
	"github.com/jamishoo-go/oursqlgo/internal/rid"
)

// headerPage carries the index's own metadata (page 1; page 0 belongs to
// page.File's own page-size/count header).
const headerPage = 1

// rootPageInitial is where the index's first (empty) leaf lives.
const rootPageInitial = 2

// bufferFrames is this index's page cache capacity. Small indexes fit
// entirely in a handful of frames; spec.md leaves the exact number
// unspecified (see DESIGN.md).
const bufferFrames = 32

// Tree is one field's B+-tree index file.
type Tree struct {
	pager *page.Pager
	path  string

	valueType   field.Type
	valueLength uint64
	keyLength   uint64

	root             uint64
	leafCap, interCap uint64
}

func encodeHeader(buf []byte, t *Tree) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.valueType))
	binary.LittleEndian.PutUint64(buf[8:16], t.valueLength)
	binary.LittleEndian.PutUint64(buf[16:24], t.root)
}

func decodeHeader(buf []byte) (valueType field.Type, valueLength, root uint64) {
	return field.Type(binary.LittleEndian.Uint64(buf[0:8])), binary.LittleEndian.Uint64(buf[8:16]), binary.LittleEndian.Uint64(buf[16:24])
}

// Create lays out a new, empty index file for one field.
func Create(path string, valueType field.Type, valueLength uint64) (*Tree, error) {
	pf, err := page.Create(path, IndexPageSize)
	if err != nil {
		return nil, err
	}
	pager := page.NewPager(pf, bufferFrames)
	keyLength := valueLength + rid.Size
	t := &Tree{
		pager:       pager,
		path:        path,
		valueType:   valueType,
		valueLength: valueLength,
		keyLength:   keyLength,
		root:        rootPageInitial,
		leafCap:     leafCapacity(IndexPageSize, keyLength),
		interCap:    internalCapacity(IndexPageSize, keyLength),
	}
	if t.leafCap < 2 || t.interCap < 2 {
		pager.Close()
		page.Remove(path)
		return nil, fmt.Errorf("index: field length %d too large for a %d-byte index node", valueLength, IndexPageSize)
	}
	hdrBuf := t.mustGetPage(headerPage)
	encodeHeader(hdrBuf, t)
	t.pager.MarkDirty(headerPage)

	rootBuf := t.mustGetPage(rootPageInitial)
	encodeLeaf(rootBuf, rootPageInitial, nil, noPage)
	t.pager.MarkDirty(rootPageInitial)

	if err := t.pager.Flush(); err != nil {
		return nil, err
	}
	return t, nil
}

// Open opens an existing index file.
func Open(path string) (*Tree, error) {
	pf, _ := page.Open(path)
	if pf == nil {
		return nil, fmt.Errorf("index: failed to open %s", path)
	}
	pager := page.NewPager(pf, bufferFrames)
	t := &Tree{pager: pager, path: path}
	hdrBuf, err := pager.GetPage(headerPage)
	if err != nil {
		return nil, err
	}
	t.valueType, t.valueLength, t.root = decodeHeader(hdrBuf)
	t.keyLength = t.valueLength + rid.Size
	t.leafCap = leafCapacity(IndexPageSize, t.keyLength)
	t.interCap = internalCapacity(IndexPageSize, t.keyLength)
	return t, nil
}

// Close flushes dirty pages and closes the file.
func (t *Tree) Close() error {
	return t.pager.Close()
}

// Remove deletes the index file at path. The tree must already be closed.
func Remove(path string) error {
	return page.Remove(path)
}

func (t *Tree) mustGetPage(id uint64) []byte {
	b, err := t.pager.GetPage(id)
	if err != nil {
		panic(err)
	}
	return b
}

func (t *Tree) writeHeader() {
	buf := t.mustGetPage(headerPage)
	encodeHeader(buf, t)
	t.pager.MarkDirty(headerPage)
}

func (t *Tree) loadHeader(id uint64) nodeHeader {
	return readNodeHeader(t.mustGetPage(id))
}

// loadLeafKeys and loadInternal always return keys cloned out of the
// page buffer (never aliased to it): callers go on to re-encode the same
// node, sometimes at shifted offsets, and an aliased slice's bytes can be
// clobbered by an earlier write in that same re-encode before a later
// one reads it.
func (t *Tree) loadLeafKeys(id uint64) (keys [][]byte, next uint64) {
	buf := t.mustGetPage(id)
	hdr := readNodeHeader(buf)
	return cloneKeys(decodeLeafKeys(buf, hdr.Count, t.keyLength)), hdr.Next
}

func (t *Tree) loadInternal(id uint64) (keys [][]byte, children []uint64) {
	buf := t.mustGetPage(id)
	hdr := readNodeHeader(buf)
	keys, children = decodeInternal(buf, hdr.Count, t.keyLength)
	return cloneKeys(keys), append([]uint64{}, children...)
}

func (t *Tree) writeLeaf(id uint64, keys [][]byte, next uint64) {
	buf := t.mustGetPage(id)
	encodeLeaf(buf, id, keys, next)
	t.pager.MarkDirty(id)
}

func (t *Tree) writeInternal(id uint64, keys [][]byte, children []uint64) {
	buf := t.mustGetPage(id)
	encodeInternal(buf, id, keys, children)
	t.pager.MarkDirty(id)
}

// compareKeys orders two composite (value, RID) keys the way the whole
// tree is ordered: primarily by value, then by RID.
func (t *Tree) compareKeys(a, b []byte) int {
	return field.CompareKey(a[:t.valueLength], a[t.valueLength:], b[:t.valueLength], b[t.valueLength:], t.valueType, t.valueLength)
}

func (t *Tree) childFor(children []uint64, keys [][]byte, key []byte) uint64 {
	for i, k := range keys {
		if t.compareKeys(key, k) < 0 {
			return children[i]
		}
	}
	return children[len(children)-1]
}

func (t *Tree) makeKey(value []byte, r rid.RID) []byte {
	key := make([]byte, t.keyLength)
	copy(key, value)
	copy(key[t.valueLength:], r.Encode())
	return key
}

// Insert adds (value, r) to the index, splitting leaves and internal
// nodes bottom-up as needed (spec.md §5's insert algorithm).
func (t *Tree) Insert(value []byte, r rid.RID) error {
	if uint64(len(value)) != t.valueLength {
		return fmt.Errorf("index: value must be %d bytes, got %d", t.valueLength, len(value))
	}
	key := t.makeKey(value, r)

	var path []uint64
	cur := t.root
	for {
		hdr := t.loadHeader(cur)
		if hdr.IsLeaf {
			break
		}
		keys, children := t.loadInternal(cur)
		path = append(path, cur)
		cur = t.childFor(children, keys, key)
	}

	keys, next := t.loadLeafKeys(cur)
	keys = insertSorted(t, keys, key)
	if uint64(len(keys)) <= t.leafCap {
		t.writeLeaf(cur, keys, next)
		return nil
	}

	mid := len(keys) / 2
	leftKeys := cloneKeys(keys[:mid])
	rightKeys := cloneKeys(keys[mid:])
	newID, _ := t.pager.NewPage()
	t.writeLeaf(newID, rightKeys, next)
	t.writeLeaf(cur, leftKeys, newID)
	promote := cloneKey(rightKeys[0])
	return t.insertUp(path, promote, newID)
}

func insertSorted(t *Tree, keys [][]byte, key []byte) [][]byte {
	i := 0
	for i < len(keys) && t.compareKeys(keys[i], key) < 0 {
		i++
	}
	out := make([][]byte, 0, len(keys)+1)
	out = append(out, keys[:i]...)
	out = append(out, key)
	out = append(out, keys[i:]...)
	return out
}

func cloneKeys(keys [][]byte) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = cloneKey(k)
	}
	return out
}

// insertUp propagates a (promoted separator, new right child) pair up
// the path recorded during descent, splitting internal nodes as needed
// and growing the tree's height by one when the root itself splits.
func (t *Tree) insertUp(path []uint64, promote []byte, rightChild uint64) error {
	if len(path) == 0 {
		newRoot, _ := t.pager.NewPage()
		t.writeInternal(newRoot, [][]byte{promote}, []uint64{t.root, rightChild})
		t.root = newRoot
		t.writeHeader()
		return nil
	}
	parentID := path[len(path)-1]
	keys, children := t.loadInternal(parentID)
	keys, children = insertSeparator(t, keys, children, promote, rightChild)
	if uint64(len(keys)) <= t.interCap {
		t.writeInternal(parentID, keys, children)
		return nil
	}

	mid := len(keys) / 2
	upKey := cloneKey(keys[mid])
	leftKeys := cloneKeys(keys[:mid])
	leftChildren := append([]uint64{}, children[:mid+1]...)
	rightKeys := cloneKeys(keys[mid+1:])
	rightChildren := append([]uint64{}, children[mid+1:]...)

	newID, _ := t.pager.NewPage()
	t.writeInternal(newID, rightKeys, rightChildren)
	t.writeInternal(parentID, leftKeys, leftChildren)
	return t.insertUp(path[:len(path)-1], upKey, newID)
}

func insertSeparator(t *Tree, keys [][]byte, children []uint64, sep []byte, rightChild uint64) ([][]byte, []uint64) {
	i := 0
	for i < len(keys) && t.compareKeys(keys[i], sep) < 0 {
		i++
	}
	newKeys := make([][]byte, 0, len(keys)+1)
	newKeys = append(newKeys, keys[:i]...)
	newKeys = append(newKeys, sep)
	newKeys = append(newKeys, keys[i:]...)

	newChildren := make([]uint64, 0, len(children)+1)
	newChildren = append(newChildren, children[:i+1]...)
	newChildren = append(newChildren, rightChild)
	newChildren = append(newChildren, children[i+1:]...)
	return newKeys, newChildren
}

// Delete removes the (value, r) entry from its leaf. Underfull leaves
// and internal nodes are left in place rather than redistributed or
// merged with a sibling: at this engine's scale the extra disk space is
// cheap and simpler than implementing merge, and search correctness does
// not depend on node fill factor (see DESIGN.md).
func (t *Tree) Delete(value []byte, r rid.RID) error {
	if uint64(len(value)) != t.valueLength {
		return fmt.Errorf("index: value must be %d bytes, got %d", t.valueLength, len(value))
	}
	key := t.makeKey(value, r)
	cur := t.root
	for {
		hdr := t.loadHeader(cur)
		if hdr.IsLeaf {
			break
		}
		keys, children := t.loadInternal(cur)
		cur = t.childFor(children, keys, key)
	}
	keys, next := t.loadLeafKeys(cur)
	for i, k := range keys {
		if t.compareKeys(k, key) == 0 {
			remaining := make([][]byte, 0, len(keys)-1)
			remaining = append(remaining, cloneKeys(keys[:i])...)
			remaining = append(remaining, cloneKeys(keys[i+1:])...)
			t.writeLeaf(cur, remaining, next)
			return nil
		}
	}
	return fmt.Errorf("index: key not found")
}

// SearchEqual returns every RID stored under value.
func (t *Tree) SearchEqual(value []byte) ([]rid.RID, error) {
	return t.SearchRange(value, value, true, true)
}

// SearchRange returns every RID whose indexed value falls in
// [lo, hi] (bounds optionally exclusive; nil means unbounded on that
// side), walking the leaf chain in ascending order.
func (t *Tree) SearchRange(lo, hi []byte, loInclusive, hiInclusive bool) ([]rid.RID, error) {
	start := lo
	if start == nil {
		start = field.MinValue(t.valueType, t.valueLength)
	}
	searchKey := t.makeKey(start, rid.Null)

	cur := t.root
	for {
		hdr := t.loadHeader(cur)
		if hdr.IsLeaf {
			break
		}
		keys, children := t.loadInternal(cur)
		cur = t.childFor(children, keys, searchKey)
	}

	var out []rid.RID
	for cur != noPage {
		keys, next := t.loadLeafKeys(cur)
		for _, k := range keys {
			v := k[:t.valueLength]
			if lo != nil {
				c := field.Compare(v, lo, t.valueType, t.valueLength)
				if c < 0 || (c == 0 && !loInclusive) {
					continue
				}
			}
			if hi != nil {
				c := field.Compare(v, hi, t.valueType, t.valueLength)
				if c > 0 || (c == 0 && !hiInclusive) {
					return out, nil
				}
			}
			out = append(out, rid.Decode(k[t.valueLength:]))
		}
		cur = next
	}
	return out, nil
}

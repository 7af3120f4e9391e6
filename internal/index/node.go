package index

import (
	"encoding/binary"
)

// IndexPageSize is the fixed node size every B+-tree index file uses,
// independent of the table page size (spec.md §5: "fixed-size, typically
// 2KiB, independent of the table's page size").
const IndexPageSize = 2048

// nodeHeaderSize is the (own, is_leaf, count, next) header carried by
// every node page. next is the next-leaf pointer for leaves and unused
// (noPage) for internal nodes.
const nodeHeaderSize = 32

const noPage = ^uint64(0)

type nodeHeader struct {
	Own    uint64
	IsLeaf bool
	Count  uint64
	Next   uint64
}

func readNodeHeader(buf []byte) nodeHeader {
	return nodeHeader{
		Own:    binary.LittleEndian.Uint64(buf[0:8]),
		IsLeaf: binary.LittleEndian.Uint64(buf[8:16]) != 0,
		Count:  binary.LittleEndian.Uint64(buf[16:24]),
		Next:   binary.LittleEndian.Uint64(buf[24:32]),
	}
}

func writeNodeHeader(buf []byte, h nodeHeader) {
	binary.LittleEndian.PutUint64(buf[0:8], h.Own)
	leaf := uint64(0)
	if h.IsLeaf {
		leaf = 1
	}
	binary.LittleEndian.PutUint64(buf[8:16], leaf)
	binary.LittleEndian.PutUint64(buf[16:24], h.Count)
	binary.LittleEndian.PutUint64(buf[24:32], h.Next)
}

// leafCapacity returns the largest number of composite keys a leaf node
// of keyLength-byte entries can hold.
func leafCapacity(pageSize, keyLength uint64) uint64 {
	return (pageSize - nodeHeaderSize) / keyLength
}

// internalCapacity returns the largest number of separator keys an
// internal node can hold, leaving room for count+1 child pointers.
func internalCapacity(pageSize, keyLength uint64) uint64 {
	n := pageSize - nodeHeaderSize - 8
	return n / (keyLength + 8)
}

func encodeLeaf(buf []byte, own uint64, keys [][]byte, next uint64) {
	writeNodeHeader(buf, nodeHeader{Own: own, IsLeaf: true, Count: uint64(len(keys)), Next: next})
	off := nodeHeaderSize
	for _, k := range keys {
		copy(buf[off:off+len(k)], k)
		off += len(k)
	}
}

func decodeLeafKeys(buf []byte, count, keyLength uint64) [][]byte {
	keys := make([][]byte, count)
	off := uint64(nodeHeaderSize)
	for i := uint64(0); i < count; i++ {
		keys[i] = buf[off : off+keyLength]
		off += keyLength
	}
	return keys
}

func encodeInternal(buf []byte, own uint64, keys [][]byte, children []uint64) {
	writeNodeHeader(buf, nodeHeader{Own: own, IsLeaf: false, Count: uint64(len(keys)), Next: noPage})
	off := nodeHeaderSize
	for _, k := range keys {
		copy(buf[off:off+len(k)], k)
		off += len(k)
	}
	for _, c := range children {
		binary.LittleEndian.PutUint64(buf[off:off+8], c)
		off += 8
	}
}

func decodeInternal(buf []byte, count, keyLength uint64) (keys [][]byte, children []uint64) {
	keys = make([][]byte, count)
	off := uint64(nodeHeaderSize)
	for i := uint64(0); i < count; i++ {
		keys[i] = buf[off : off+keyLength]
		off += keyLength
	}
	children = make([]uint64, count+1)
	for i := uint64(0); i <= count; i++ {
		children[i] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}
	return keys, children
}

func cloneKey(k []byte) []byte {
	out := make([]byte, len(k))
	copy(out, k)
	return out
}

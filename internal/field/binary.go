package field

import (
	"encoding/binary"
	"math"
)

func putUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

func putFloat32(b []byte, v float32) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) }
func putFloat64(b []byte, v float64) { binary.LittleEndian.PutUint64(b, math.Float64bits(v)) }

func getFloat32(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
func getFloat64(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }

// getUint reads an unsigned integer of the width implied by t.
func getUint(b []byte, t Type) uint64 {
	switch t {
	case TypeU8:
		return uint64(b[0])
	case TypeU16:
		return uint64(binary.LittleEndian.Uint16(b))
	case TypeU32:
		return uint64(binary.LittleEndian.Uint32(b))
	case TypeU64:
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

// getInt reads a signed integer of the width implied by t.
func getInt(b []byte, t Type) int64 {
	switch t {
	case TypeI8:
		return int64(int8(b[0]))
	case TypeI16:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case TypeI32:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case TypeI64:
		return int64(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// Package field implements the typed field descriptors, the literal<->binary
// codec, the typed comparator, and the group aggregator spec.md §4.3
// describes. Every encoded value reserves its first byte as a null flag
// (0x00 null, 0xff non-null); the remaining bytes are the payload. This is
// the uniform layout spec.md's synthetic primary key already assumes ("a
// hidden 9-byte auto-key: 1-byte non-null flag + 8-byte monotone unique
// number") so this package applies it to every field rather than only to
// nullable ones, keeping record offsets fixed regardless of a column's
// NOT NULL-ness.
//
// Grounded on the teacher's coltype package (type ids shared across
// planner/vm/catalog) and on original_source/src/db_fields.h for the
// literal grammar (escape sequences, min-value generator, the widening
// table an aggregator must honor).
package field

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Type enumerates the field types spec.md §3 lists.
type Type uint64

const (
	TypeUnknown Type = iota
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeBool
	TypeChar
	TypeUChar
	TypeFloat
	TypeDouble
)

// IsString reports whether t is a fixed-capacity byte-string type.
func (t Type) IsString() bool {
	return t == TypeChar || t == TypeUChar
}

// NativeSize is the payload size (excluding the 1-byte null flag) of
// non-string types. String types do not have a fixed native size; their
// payload capacity is the descriptor's declared length.
func NativeSize(t Type) (int, error) {
	switch t {
	case TypeI8, TypeU8, TypeBool:
		return 1, nil
	case TypeI16, TypeU16:
		return 2, nil
	case TypeI32, TypeU32, TypeFloat:
		return 4, nil
	case TypeI64, TypeU64, TypeDouble:
		return 8, nil
	}
	return 0, fmt.Errorf("field: type %d has no native size", t)
}

// TypeName renders t the way CREATE TABLE / DESC spell it.
func TypeName(t Type) string {
	switch t {
	case TypeI8:
		return "TINYINT"
	case TypeI16:
		return "SMALLINT"
	case TypeI32:
		return "INT"
	case TypeI64:
		return "BIGINT"
	case TypeU8:
		return "TINYINT UNSIGNED"
	case TypeU16:
		return "SMALLINT UNSIGNED"
	case TypeU32:
		return "INT UNSIGNED"
	case TypeU64:
		return "BIGINT UNSIGNED"
	case TypeBool:
		return "BOOL"
	case TypeChar:
		return "VARCHAR"
	case TypeUChar:
		return "BINARY"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	}
	return "UNKNOWN"
}

// ParseTypeName maps a CREATE TABLE type keyword to a Type.
func ParseTypeName(name string) (Type, bool) {
	switch strings.ToUpper(name) {
	case "TINYINT":
		return TypeI8, true
	case "SMALLINT":
		return TypeI16, true
	case "INT", "INTEGER":
		return TypeI32, true
	case "BIGINT":
		return TypeI64, true
	case "TINYINT UNSIGNED":
		return TypeU8, true
	case "SMALLINT UNSIGNED":
		return TypeU16, true
	case "INT UNSIGNED", "INTEGER UNSIGNED":
		return TypeU32, true
	case "BIGINT UNSIGNED":
		return TypeU64, true
	case "BOOL", "BOOLEAN":
		return TypeBool, true
	case "VARCHAR", "CHAR", "TEXT":
		return TypeChar, true
	case "BINARY", "VARBINARY", "BLOB":
		return TypeUChar, true
	case "FLOAT":
		return TypeFloat, true
	case "DOUBLE", "REAL":
		return TypeDouble, true
	}
	return TypeUnknown, false
}

// DescRecordSize is the on-disk size of one field descriptor record
// (spec.md §6: field_id:u64 | type:u64 | length:u64 | is_pk:u8 |
// not_null:u8 | name).
const DescRecordSize = 256

const (
	descFieldIDOffset  = 0
	descTypeOffset     = 8
	descLengthOffset   = 16
	descIsPKOffset     = 24
	descNotNullOffset  = 25
	descNameOffset     = 26
)

// Desc describes one column of a table.
type Desc struct {
	ID           uint64
	Type         Type
	Length       uint64 // total encoded size including the 1-byte null flag
	IsPrimaryKey bool
	NotNull      bool
	Indexed      bool // not persisted in the 256B descriptor; the catalog's schema.json Indexed flag decides which indexes are attached
	Name         string
}

// NullFlagNull / NullFlagSet are the two leading-byte sentinels.
const (
	NullFlagNull = 0x00
	NullFlagSet  = 0xff
)

// NewDesc computes Length for a field given its declared string capacity
// (ignored for non-string types, where Length is the native size plus one
// flag byte).
func NewDesc(id uint64, t Type, declaredStringLen uint64, isPK, notNull bool, name string) (*Desc, error) {
	d := &Desc{ID: id, Type: t, IsPrimaryKey: isPK, NotNull: notNull, Name: name}
	if t.IsString() {
		if declaredStringLen == 0 {
			return nil, fmt.Errorf("field: %s requires an explicit length", name)
		}
		d.Length = declaredStringLen + 1
	} else {
		n, err := NativeSize(t)
		if err != nil {
			return nil, err
		}
		d.Length = uint64(n) + 1
	}
	return d, nil
}

// RecordLength is a field's contribution to a record's total byte length.
func (d *Desc) RecordLength() uint64 {
	return d.Length
}

// Encode serializes d into a 256-byte field descriptor record.
func (d *Desc) Encode() []byte {
	b := make([]byte, DescRecordSize)
	binary.LittleEndian.PutUint64(b[descFieldIDOffset:], d.ID)
	binary.LittleEndian.PutUint64(b[descTypeOffset:], uint64(d.Type))
	binary.LittleEndian.PutUint64(b[descLengthOffset:], d.Length)
	if d.IsPrimaryKey {
		b[descIsPKOffset] = 1
	}
	if d.NotNull {
		b[descNotNullOffset] = 1
	}
	nameBytes := []byte(d.Name)
	if len(nameBytes) > DescRecordSize-descNameOffset {
		nameBytes = nameBytes[:DescRecordSize-descNameOffset]
	}
	copy(b[descNameOffset:], nameBytes)
	return b
}

// ParseDesc is the inverse of Encode.
func ParseDesc(b []byte) (*Desc, error) {
	if len(b) != DescRecordSize {
		return nil, fmt.Errorf("field: descriptor record must be %d bytes", DescRecordSize)
	}
	name := string(bytes.TrimRight(b[descNameOffset:], "\x00"))
	return &Desc{
		ID:           binary.LittleEndian.Uint64(b[descFieldIDOffset:]),
		Type:         Type(binary.LittleEndian.Uint64(b[descTypeOffset:])),
		Length:       binary.LittleEndian.Uint64(b[descLengthOffset:]),
		IsPrimaryKey: b[descIsPKOffset] != 0,
		NotNull:      b[descNotNullOffset] != 0,
		Name:         name,
	}, nil
}

// IsNull reports whether an encoded value's leading flag marks it null.
func IsNull(encoded []byte) bool {
	return len(encoded) == 0 || encoded[0] == NullFlagNull
}

// EncodeNull writes the null encoding of a field of length n.
func EncodeNull(n uint64) []byte {
	b := make([]byte, n)
	b[0] = NullFlagNull
	return b
}

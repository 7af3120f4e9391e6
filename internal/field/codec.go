package field

import (
	"math"
	"strconv"
	"strings"
)

// ParseStatus is the three-way outcome of literal_parse (spec.md §4.3).
type ParseStatus int

const (
	ParseOK ParseStatus = iota
	ParseFailed
	ParseOutOfRange
)

// ParseLiteral converts a SQL literal's text into the type's binary
// encoding, including the leading null flag byte. text is the literal as
// written in source: a bare word (true, false, null), a quoted string
// ('...'), or a bare number.
func ParseLiteral(text string, t Type, length uint64) ([]byte, ParseStatus) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "null" {
		out := make([]byte, length)
		out[0] = NullFlagNull
		return out, ParseOK
	}
	if t == TypeChar || t == TypeUChar {
		s, ok := unquoteString(text)
		if !ok {
			return nil, ParseFailed
		}
		return encodeScalar(s, lower, t, length)
	}
	return encodeScalar(text, lower, t, length)
}

// EncodeText encodes text that is already unquoted/unescaped raw content,
// the form the compiler's AST carries for string literals, numbers, and
// TRUE/FALSE/NULL (its lexer and parser resolve quoting and escapes before
// the executor ever sees the text), as opposed to ParseLiteral's
// source-as-written form.
func EncodeText(text string, t Type, length uint64) ([]byte, ParseStatus) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "null" {
		out := make([]byte, length)
		out[0] = NullFlagNull
		return out, ParseOK
	}
	return encodeScalar(text, lower, t, length)
}

// encodeScalar writes already-unquoted text into a fresh length-byte
// buffer for any non-null value, sharing the numeric/bool/string encoding
// ParseLiteral and EncodeText otherwise duplicate.
func encodeScalar(text, lower string, t Type, length uint64) ([]byte, ParseStatus) {
	out := make([]byte, length)
	out[0] = NullFlagSet
	payload := out[1:]

	switch t {
	case TypeBool:
		switch lower {
		case "true":
			payload[0] = 1
		case "false":
			payload[0] = 0
		default:
			return nil, ParseFailed
		}
		return out, ParseOK
	case TypeChar, TypeUChar:
		if len(text) > len(payload) {
			return nil, ParseOutOfRange
		}
		copy(payload, text)
		return out, ParseOK
	case TypeFloat:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, ParseFailed
		}
		putFloat32(payload, float32(v))
		return out, ParseOK
	case TypeDouble:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, ParseFailed
		}
		putFloat64(payload, v)
		return out, ParseOK
	}

	// Remaining cases are signed/unsigned integers of varying width.
	if isUnsigned(t) {
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			if strings.Contains(err.Error(), "range") {
				return nil, ParseOutOfRange
			}
			return nil, ParseFailed
		}
		if status := putUint(payload, t, v); status != ParseOK {
			return nil, status
		}
		return out, ParseOK
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		if strings.Contains(err.Error(), "range") {
			return nil, ParseOutOfRange
		}
		return nil, ParseFailed
	}
	if status := putInt(payload, t, v); status != ParseOK {
		return nil, status
	}
	return out, ParseOK
}

func isUnsigned(t Type) bool {
	return t == TypeU8 || t == TypeU16 || t == TypeU32 || t == TypeU64
}

func putUint(payload []byte, t Type, v uint64) ParseStatus {
	switch t {
	case TypeU8:
		if v > math.MaxUint8 {
			return ParseOutOfRange
		}
		payload[0] = byte(v)
	case TypeU16:
		if v > math.MaxUint16 {
			return ParseOutOfRange
		}
		putUint16(payload, uint16(v))
	case TypeU32:
		if v > math.MaxUint32 {
			return ParseOutOfRange
		}
		putUint32(payload, uint32(v))
	case TypeU64:
		putUint64(payload, v)
	default:
		return ParseFailed
	}
	return ParseOK
}

func putInt(payload []byte, t Type, v int64) ParseStatus {
	switch t {
	case TypeI8:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return ParseOutOfRange
		}
		payload[0] = byte(int8(v))
	case TypeI16:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return ParseOutOfRange
		}
		putUint16(payload, uint16(int16(v)))
	case TypeI32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return ParseOutOfRange
		}
		putUint32(payload, uint32(int32(v)))
	case TypeI64:
		putUint64(payload, uint64(v))
	default:
		return ParseFailed
	}
	return ParseOK
}

// unquoteString strips the surrounding single quotes from a string literal
// and resolves \b \n \r \t \\ \' escapes (spec.md §4.3/§6).
func unquoteString(text string) (string, bool) {
	if len(text) < 2 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return "", false
	}
	inner := text[1 : len(text)-1]
	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(inner) {
			return "", false
		}
		switch inner[i] {
		case 'b':
			sb.WriteByte('\b')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\':
			sb.WriteByte('\\')
		case '\'':
			sb.WriteByte('\'')
		default:
			return "", false
		}
	}
	return sb.String(), true
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\b':
			sb.WriteString("\\b")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		case '\\':
			sb.WriteString("\\\\")
		case '\'':
			sb.WriteString("\\'")
		default:
			sb.WriteByte(s[i])
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// Render renders an encoded value back to display text: quoted strings,
// NULL for null, and plain decimal/float text otherwise.
func Render(encoded []byte, t Type) string {
	if IsNull(encoded) {
		return "NULL"
	}
	payload := encoded[1:]
	switch t {
	case TypeBool:
		if payload[0] != 0 {
			return "true"
		}
		return "false"
	case TypeChar, TypeUChar:
		end := 0
		for end < len(payload) && payload[end] != 0 {
			end++
		}
		return quoteString(string(payload[:end]))
	case TypeFloat:
		return strconv.FormatFloat(float64(getFloat32(payload)), 'g', -1, 32)
	case TypeDouble:
		return strconv.FormatFloat(getFloat64(payload), 'g', -1, 64)
	}
	if isUnsigned(t) {
		return strconv.FormatUint(getUint(payload, t), 10)
	}
	return strconv.FormatInt(getInt(payload, t), 10)
}

// MinValue writes the smallest legal non-null value of t into a
// length-byte buffer, used as the low endpoint of half-open range scans
// (spec.md §4.3 min_generator).
func MinValue(t Type, length uint64) []byte {
	out := make([]byte, length)
	out[0] = NullFlagSet
	payload := out[1:]
	switch t {
	case TypeChar, TypeUChar, TypeBool, TypeU8, TypeU16, TypeU32, TypeU64:
		// zero value is already the minimum
	case TypeI8:
		v := int8(math.MinInt8)
		payload[0] = byte(v)
	case TypeI16:
		v := int16(math.MinInt16)
		putUint16(payload, uint16(v))
	case TypeI32:
		v := int32(math.MinInt32)
		putUint32(payload, uint32(v))
	case TypeI64:
		v := int64(math.MinInt64)
		putUint64(payload, uint64(v))
	case TypeFloat:
		putFloat32(payload, -math.MaxFloat32)
	case TypeDouble:
		putFloat64(payload, -math.MaxFloat64)
	}
	return out
}

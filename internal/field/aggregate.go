package field

import "fmt"

// AggFunc enumerates the supported aggregates (spec.md §4.3).
type AggFunc int

const (
	AggSum AggFunc = iota
	AggAvg
	AggMax
	AggMin
	AggCount
)

// AggResult carries the widened output of an aggregate, since sum/avg/
// count change the result's type independent of the source column
// (spec.md §9's widening table, pinned for test stability).
type AggResult struct {
	// ResultType is the coltype-like output type: TypeI64 for integer
	// sum, TypeDouble for avg and float sum, TypeU64 for count, or the
	// source type for max/min.
	ResultType Type
	// Encoded is the rendered value using ResultType's encoding (always
	// including the leading null flag byte).
	Encoded []byte
}

// Aggregate computes fn over a group of raw record buffers, reading the
// field at byte offset off with the given source type/length. Nulls are
// skipped. count over an empty group returns 0; sum/avg/max/min over an
// all-null or empty group return SQL NULL.
func Aggregate(fn AggFunc, records [][]byte, off int, t Type, length uint64) (*AggResult, error) {
	if fn == AggCount {
		n := uint64(0)
		for _, r := range records {
			v := r[off : off+int(length)]
			if !IsNull(v) {
				n++
			}
		}
		out := make([]byte, 9)
		out[0] = NullFlagSet
		putUint64(out[1:], n)
		return &AggResult{ResultType: TypeU64, Encoded: out}, nil
	}

	vals := make([][]byte, 0, len(records))
	for _, r := range records {
		v := r[off : off+int(length)]
		if !IsNull(v) {
			vals = append(vals, v)
		}
	}

	switch fn {
	case AggSum:
		return sumValues(vals, t)
	case AggAvg:
		return avgValues(vals, t)
	case AggMax:
		return extremum(vals, t, length, 1)
	case AggMin:
		return extremum(vals, t, length, -1)
	}
	return nil, fmt.Errorf("field: unknown aggregate function %d", fn)
}

func isFloatType(t Type) bool {
	return t == TypeFloat || t == TypeDouble
}

func sumValues(vals [][]byte, t Type) (*AggResult, error) {
	if isFloatType(t) {
		return sumFloat(vals, t)
	}
	if len(vals) == 0 {
		out := make([]byte, 9)
		out[0] = NullFlagNull
		return &AggResult{ResultType: TypeI64, Encoded: out}, nil
	}
	var total int64
	for _, v := range vals {
		p := v[1:]
		if isUnsigned(t) {
			total += int64(getUint(p, t))
		} else {
			total += getInt(p, t)
		}
	}
	out := make([]byte, 9)
	out[0] = NullFlagSet
	putUint64(out[1:], uint64(total))
	return &AggResult{ResultType: TypeI64, Encoded: out}, nil
}

func sumFloat(vals [][]byte, t Type) (*AggResult, error) {
	if len(vals) == 0 {
		out := make([]byte, 9)
		out[0] = NullFlagNull
		return &AggResult{ResultType: TypeDouble, Encoded: out}, nil
	}
	var total float64
	for _, v := range vals {
		p := v[1:]
		if t == TypeFloat {
			total += float64(getFloat32(p))
		} else {
			total += getFloat64(p)
		}
	}
	out := make([]byte, 9)
	out[0] = NullFlagSet
	putFloat64(out[1:], total)
	return &AggResult{ResultType: TypeDouble, Encoded: out}, nil
}

func avgValues(vals [][]byte, t Type) (*AggResult, error) {
	out := make([]byte, 9)
	if len(vals) == 0 {
		out[0] = NullFlagNull
		return &AggResult{ResultType: TypeDouble, Encoded: out}, nil
	}
	var total float64
	for _, v := range vals {
		p := v[1:]
		switch {
		case t == TypeFloat:
			total += float64(getFloat32(p))
		case t == TypeDouble:
			total += getFloat64(p)
		case isUnsigned(t):
			total += float64(getUint(p, t))
		default:
			total += float64(getInt(p, t))
		}
	}
	out[0] = NullFlagSet
	putFloat64(out[1:], total/float64(len(vals)))
	return &AggResult{ResultType: TypeDouble, Encoded: out}, nil
}

// extremum finds max (dir=1) or min (dir=-1), preserving the source type.
func extremum(vals [][]byte, t Type, length uint64, dir int) (*AggResult, error) {
	out := make([]byte, length)
	if len(vals) == 0 {
		out[0] = NullFlagNull
		return &AggResult{ResultType: t, Encoded: out}, nil
	}
	best := vals[0]
	for _, v := range vals[1:] {
		c := Compare(best, v, t, length)
		if (dir == 1 && c < 0) || (dir == -1 && c > 0) {
			best = v
		}
	}
	copy(out, best)
	return &AggResult{ResultType: t, Encoded: out}, nil
}

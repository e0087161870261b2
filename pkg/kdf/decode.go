package kdf

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scalar is one decoded record member. Integers keep their exact value.
type Scalar struct {
	Kind ScalarKind
	i    int64
	u    uint64
	f    float64
}

// IntScalar wraps a signed integer.
func IntScalar(v int64) Scalar { return Scalar{Kind: KindInt, i: v} }

// UintScalar wraps an unsigned integer.
func UintScalar(v uint64) Scalar { return Scalar{Kind: KindUint, u: v} }

// FloatScalar wraps a float of any stored width.
func FloatScalar(v float64) Scalar { return Scalar{Kind: KindFloat, f: v} }

// BoolScalar stores v as 0 or 1.
func BoolScalar(v bool) Scalar {
	if v {
		return Scalar{Kind: KindBool, u: 1}
	}
	return Scalar{Kind: KindBool}
}

// Float64 converts the value, which may round integers beyond 2^53.
func (s Scalar) Float64() float64 {
	switch s.Kind {
	case KindInt:
		return float64(s.i)
	case KindUint, KindBool:
		return float64(s.u)
	default:
		return s.f
	}
}

// String renders the value with six fractional digits.
func (s Scalar) String() string {
	switch s.Kind {
	case KindInt:
		return strconv.FormatInt(s.i, 10) + ".000000"
	case KindUint, KindBool:
		return strconv.FormatUint(s.u, 10) + ".000000"
	default:
		return FormatFixed(s.f)
	}
}

// FormatFixed formats v with six fractional digits, spelling non-finite
// values as nan, inf and -inf.
func FormatFixed(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Record is one fixed-stride record.
type Record []Scalar

// String space-joins the record members.
func (r Record) String() string {
	switch len(r) {
	case 0:
		return ""
	case 1:
		return r[0].String()
	}
	var b strings.Builder
	for i, s := range r {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// DecodeRecords reinterprets raw as a flat array of records.
// The byte length must be a whole number of records.
func DecodeRecords(raw []byte, l *Layout) ([]Record, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil layout", ErrMalformedData)
	}
	if l.Stride == 0 {
		if len(raw) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %d bytes for zero-width format %q", ErrMalformedData, len(raw), l.Format)
	}
	if len(raw)%l.Stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of stride %d (%q)",
			ErrMalformedData, len(raw), l.Stride, l.Format)
	}
	n := len(raw) / l.Stride
	cols := len(l.columns)
	backing := make([]Scalar, n*cols)
	out := make([]Record, n)
	for r := 0; r < n; r++ {
		rec := raw[r*l.Stride : (r+1)*l.Stride]
		row := backing[r*cols : (r+1)*cols : (r+1)*cols]
		for c, col := range l.columns {
			row[c] = decodeScalar(rec[col.offset:col.offset+col.info.Size], col.code)
		}
		out[r] = row
	}
	return out, nil
}

func decodeScalar(b []byte, code byte) Scalar {
	switch code {
	case 'b':
		return IntScalar(int64(int8(b[0])))
	case 'B', 'c':
		return UintScalar(uint64(b[0]))
	case '?':
		return BoolScalar(b[0] != 0)
	case 'h':
		return IntScalar(int64(int16(binary.LittleEndian.Uint16(b))))
	case 'H':
		return UintScalar(uint64(binary.LittleEndian.Uint16(b)))
	case 'i', 'l':
		return IntScalar(int64(int32(binary.LittleEndian.Uint32(b))))
	case 'I', 'L':
		return UintScalar(uint64(binary.LittleEndian.Uint32(b)))
	case 'q':
		return IntScalar(int64(binary.LittleEndian.Uint64(b)))
	case 'Q':
		return UintScalar(binary.LittleEndian.Uint64(b))
	case 'e':
		return FloatScalar(halfToFloat64(binary.LittleEndian.Uint16(b)))
	case 'f':
		return FloatScalar(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
	case 'd':
		return FloatScalar(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return Scalar{}
	}
}

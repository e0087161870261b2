package kdf

import "fmt"

// ScalarKind is how a format code's bytes are interpreted.
type ScalarKind uint8

const (
	KindPad ScalarKind = iota
	KindInt
	KindUint
	KindBool
	KindFloat
)

func (k ScalarKind) String() string {
	switch k {
	case KindPad:
		return "pad"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// CodeInfo is the little-endian width and interpretation of a format code.
type CodeInfo struct {
	Size int
	Kind ScalarKind
}

// codeTable follows C struct codes with fixed little-endian widths.
// 'l' is pinned to a 4 byte signed integer regardless of host long size.
var codeTable = map[byte]CodeInfo{
	'x': {0, KindPad},
	'c': {1, KindUint},
	'b': {1, KindInt},
	'B': {1, KindUint},
	'?': {1, KindBool},
	'h': {2, KindInt},
	'H': {2, KindUint},
	'i': {4, KindInt},
	'I': {4, KindUint},
	'l': {4, KindInt},
	'L': {4, KindUint},
	'q': {8, KindInt},
	'Q': {8, KindUint},
	'e': {2, KindFloat},
	'f': {4, KindFloat},
	'd': {8, KindFloat},
}

// Code returns the layout of a single format code.
func Code(c byte) (CodeInfo, bool) {
	info, ok := codeTable[c]
	return info, ok
}

// Stride is the byte width of one record of the given format codes.
func Stride(format string) (int, error) {
	n := 0
	for i := 0; i < len(format); i++ {
		info, ok := codeTable[format[i]]
		if !ok {
			return 0, fmt.Errorf("%w %q at %d", ErrUnknownFormat, format[i], i)
		}
		n += info.Size
	}
	return n, nil
}

type column struct {
	offset int
	code   byte
	info   CodeInfo
}

// Layout is a compiled fixed-stride record description.
type Layout struct {
	Format string
	Stride int
	// Scalar is set for single-code formats, which decode to flat values.
	Scalar  bool
	columns []column
}

// NewLayout compiles a record format string such as "ffd".
func NewLayout(format string) (*Layout, error) {
	if format == "" {
		return nil, fmt.Errorf("%w: empty record format", ErrUnknownFormat)
	}
	l := &Layout{Format: format, Scalar: len(format) == 1}
	off := 0
	for i := 0; i < len(format); i++ {
		info, ok := codeTable[format[i]]
		if !ok {
			return nil, fmt.Errorf("%w %q at %d", ErrUnknownFormat, format[i], i)
		}
		if info.Kind != KindPad {
			l.columns = append(l.columns, column{offset: off, code: format[i], info: info})
		}
		off += info.Size
	}
	l.Stride = off
	return l, nil
}

// Columns is the number of non-pad values per record.
func (l *Layout) Columns() int {
	return len(l.columns)
}

// ColumnCode is the format code of the i-th non-pad column.
func (l *Layout) ColumnCode(i int) byte {
	return l.columns[i].code
}

package kdf

import (
	"errors"
	"testing"
)

func TestStrideSumsCodeWidths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		format string
		want   int
	}{
		{"f", 4},
		{"d", 8},
		{"ffd", 16},
		{"xcbB?", 4},
		{"hH", 4},
		{"iIlL", 16},
		{"qQ", 16},
		{"e", 2},
		{"lll", 12},
	}
	for _, tc := range cases {
		got, err := Stride(tc.format)
		if err != nil {
			t.Fatalf("Stride(%q): %v", tc.format, err)
		}
		if got != tc.want {
			t.Fatalf("Stride(%q): got %d want %d", tc.format, got, tc.want)
		}
	}
}

func TestLongIsFourByteSigned(t *testing.T) {
	t.Parallel()

	info, ok := Code('l')
	if !ok {
		t.Fatal("code l missing")
	}
	if info.Size != 4 || info.Kind != KindInt {
		t.Fatalf("code l: got size=%d kind=%v want size=4 kind=int", info.Size, info.Kind)
	}
	info, _ = Code('L')
	if info.Size != 4 || info.Kind != KindUint {
		t.Fatalf("code L: got size=%d kind=%v", info.Size, info.Kind)
	}
}

func TestStrideUnknownCode(t *testing.T) {
	t.Parallel()

	if _, err := Stride("fz"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := NewLayout(""); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat for empty format, got %v", err)
	}
}

func TestNewLayoutSkipsPadColumns(t *testing.T) {
	t.Parallel()

	l, err := NewLayout("fxd")
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	if l.Stride != 12 {
		t.Fatalf("stride: got %d want 12", l.Stride)
	}
	if l.Columns() != 2 {
		t.Fatalf("columns: got %d want 2", l.Columns())
	}
	if l.ColumnCode(0) != 'f' || l.ColumnCode(1) != 'd' {
		t.Fatalf("column codes: got %q %q", l.ColumnCode(0), l.ColumnCode(1))
	}
	if l.Scalar {
		t.Fatal("multi-code layout reported as scalar")
	}

	single, err := NewLayout("h")
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	if !single.Scalar {
		t.Fatal("single-code layout should be scalar")
	}
}

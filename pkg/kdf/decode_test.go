package kdf

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestDecodeRecordsScalarFloat(t *testing.T) {
	t.Parallel()

	raw := make([]byte, 12)
	for i, v := range []float32{1.5, -2.0, 3.25} {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	l, err := NewLayout("f")
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	recs, err := DecodeRecords(raw, l)
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	want := []string{"1.500000", "-2.000000", "3.250000"}
	if len(recs) != len(want) {
		t.Fatalf("records: got %d want %d", len(recs), len(want))
	}
	for i := range want {
		if got := recs[i].String(); got != want[i] {
			t.Fatalf("record %d: got %q want %q", i, got, want[i])
		}
	}
}

func TestDecodeRecordsStructuredTuple(t *testing.T) {
	t.Parallel()

	// one "hld" record: int16, int32 (l), float64
	raw := make([]byte, 14)
	binary.LittleEndian.PutUint16(raw[0:], uint16(0xFFFF)) // -1
	binary.LittleEndian.PutUint32(raw[2:], uint32(0xFFFFFFFE))
	binary.LittleEndian.PutUint64(raw[6:], math.Float64bits(0.125))

	l, err := NewLayout("hld")
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	recs, err := DecodeRecords(raw, l)
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records: got %d want 1", len(recs))
	}
	if got, want := recs[0].String(), "-1.000000 -2.000000 0.125000"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDecodeRecordsWideIntegersExact(t *testing.T) {
	t.Parallel()

	raw := make([]byte, 16)
	binary.LittleEndian.PutUint64(raw[0:], math.MaxUint64)
	binary.LittleEndian.PutUint64(raw[8:], uint64(1<<63)) // min int64 as q

	l, _ := NewLayout("Qq")
	recs, err := DecodeRecords(raw, l)
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	want := "18446744073709551615.000000 -9223372036854775808.000000"
	if got := recs[0].String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDecodeRecordsHalfAndBool(t *testing.T) {
	t.Parallel()

	raw := []byte{0x00, 0x3C, 0x01, 0x00, 0xC0, 0x00} // e=1.0, ?=true, e=-2.0, ?=false
	l, _ := NewLayout("e?")
	recs, err := DecodeRecords(raw, l)
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	if got := recs[0].String(); got != "1.000000 1.000000" {
		t.Fatalf("record 0: got %q", got)
	}
	if got := recs[1].String(); got != "-2.000000 0.000000" {
		t.Fatalf("record 1: got %q", got)
	}
}

func TestDecodeRecordsMalformedLength(t *testing.T) {
	t.Parallel()

	l, _ := NewLayout("ffd")
	_, err := DecodeRecords(make([]byte, 17), l)
	if !errors.Is(err, ErrMalformedData) {
		t.Fatalf("expected ErrMalformedData, got %v", err)
	}
}

func TestDecodeRecordsEmpty(t *testing.T) {
	t.Parallel()

	l, _ := NewLayout("i")
	recs, err := DecodeRecords(nil, l)
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

func TestHalfToFloat64(t *testing.T) {
	t.Parallel()

	cases := []struct {
		bits uint16
		want float64
	}{
		{0x0000, 0},
		{0x3C00, 1},
		{0x3800, 0.5},
		{0x7BFF, 65504},
		{0x0001, 5.960464477539063e-08},
	}
	for _, tc := range cases {
		if got := halfToFloat64(tc.bits); got != tc.want {
			t.Fatalf("half %#04x: got %v want %v", tc.bits, got, tc.want)
		}
	}
	if !math.IsInf(halfToFloat64(0x7C00), 1) {
		t.Fatal("0x7C00 should be +Inf")
	}
	if !math.IsNaN(halfToFloat64(0x7E00)) {
		t.Fatal("0x7E00 should be NaN")
	}
}

func TestFormatFixed(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{
		0:           "0.000000",
		10:          "10.000000",
		0.0000004:   "0.000000",
		1234.56789:  "1234.567890",
		math.Inf(1): "inf",
	}
	for v, want := range cases {
		if got := FormatFixed(v); got != want {
			t.Fatalf("FormatFixed(%v): got %q want %q", v, got, want)
		}
	}
	if got := FormatFixed(math.NaN()); got != "nan" {
		t.Fatalf("FormatFixed(NaN): got %q", got)
	}
}

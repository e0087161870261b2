// Package timeline reconstructs per-sample timestamps for KDF channels.
package timeline

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samcharles93/kdfx/pkg/kdf"
)

var (
	ErrTimestamp  = errors.New("unable to parse measured timestamp")
	ErrSampleRate = errors.New("invalid sample rate")
	ErrCount      = errors.New("invalid total_values")
)

// NotAvailable fills timestamp fields of channels without a time base.
const NotAvailable = "N/A"

// StampLayout renders sample timestamps at millisecond resolution, UTC.
const StampLayout = "2006-01-02T15:04:05.000"

// measuredLayouts accepts an explicit UTC offset, with or without a colon,
// and the older form ending in a literal Z.
var measuredLayouts = []string{
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z",
}

// secondsEnd is the length of the "2006-01-02T15:04:05" prefix.
const secondsEnd = len("2006-01-02T15:04:05")

// ParseMeasured parses a header measured_timestamp. Fractional seconds are
// rejected: time.Parse would accept them after a whole-second layout.
func ParseMeasured(s string) (time.Time, error) {
	if len(s) > secondsEnd && s[secondsEnd] == '.' {
		return time.Time{}, fmt.Errorf("%w: %q has fractional seconds", ErrTimestamp, s)
	}
	for _, layout := range measuredLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestamp, s)
}

// Series is the formatted time base of a channel.
type Series struct {
	Timestamps []string
	Millis     []string
	Duration   string
}

func (s Series) Len() int {
	return len(s.Timestamps)
}

// Unavailable is the series of a self-describing channel with n entries.
func Unavailable(n int) Series {
	stamps := make([]string, n)
	for i := range stamps {
		stamps[i] = NotAvailable
	}
	return Series{Timestamps: stamps, Millis: stamps, Duration: NotAvailable}
}

// UniformOffsets returns i*1000/rate for i in [0, n).
func UniformOffsets(rate float64, n int) ([]float64, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrSampleRate, rate)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrCount, n)
	}
	period := 1000 / rate
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * period
	}
	return out, nil
}

// CumulativeOffsets is the running sum of per-sample millisecond deltas.
func CumulativeOffsets(deltas []float64) []float64 {
	out := make([]float64, len(deltas))
	var sum float64
	for i, d := range deltas {
		sum += d
		out[i] = sum
	}
	return out
}

// CumulativeOffsets32 is CumulativeOffsets with the running sum held in
// float32, for delta channels stored as single or half precision.
func CumulativeOffsets32(deltas []float64) []float64 {
	out := make([]float64, len(deltas))
	var sum float32
	for i, d := range deltas {
		sum += float32(d)
		out[i] = float64(sum)
	}
	return out
}

// Build formats offsets against the measured start.
func Build(start time.Time, offsets []float64) Series {
	s := Series{
		Timestamps: make([]string, len(offsets)),
		Millis:     make([]string, len(offsets)),
		Duration:   kdf.FormatFixed(0),
	}
	base := float64(start.UnixMilli())
	for i, off := range offsets {
		s.Timestamps[i] = Stamp(base + off)
		s.Millis[i] = kdf.FormatFixed(off)
	}
	if len(offsets) > 0 {
		s.Duration = s.Millis[len(offsets)-1]
	}
	return s
}

// Stamp formats a Unix millisecond instant, truncating any fraction.
func Stamp(unixMilli float64) string {
	if math.IsNaN(unixMilli) || math.IsInf(unixMilli, 0) {
		return "NaT"
	}
	return time.UnixMilli(int64(math.Trunc(unixMilli))).UTC().Format(StampLayout)
}

// Uniform is the series of a channel sampled at rate Hz.
func Uniform(measured string, rate float64, n int) (Series, error) {
	start, err := ParseMeasured(measured)
	if err != nil {
		return Series{}, err
	}
	offsets, err := UniformOffsets(rate, n)
	if err != nil {
		return Series{}, err
	}
	return Build(start, offsets), nil
}

// Cumulative is the series of a channel whose values are millisecond deltas.
// single selects float32 accumulation.
func Cumulative(measured string, deltas []float64, single bool) (Series, error) {
	start, err := ParseMeasured(measured)
	if err != nil {
		return Series{}, err
	}
	if single {
		return Build(start, CumulativeOffsets32(deltas)), nil
	}
	return Build(start, CumulativeOffsets(deltas)), nil
}

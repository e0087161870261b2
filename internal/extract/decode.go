package extract

import (
	"errors"
	"fmt"

	"github.com/samcharles93/kdfx/internal/timeline"
	"github.com/samcharles93/kdfx/pkg/kdf"
)

// UnitMillis marks channels whose values are millisecond deltas.
const UnitMillis = "ms"

var errDeltaColumns = errors.New("ms channels need a single-value encoding")

// DecodedChannel is a channel's rendered values and time base.
type DecodedChannel struct {
	Values       []string
	Timestamps   []string
	Milliseconds []string
	Duration     string
	Datapoints   int
}

// Rows is the number of output rows; values and timestamps pair up to the
// shorter of the two.
func (d *DecodedChannel) Rows() int {
	return min(len(d.Values), len(d.Timestamps), len(d.Milliseconds))
}

// DecodeChannel decodes raw according to ch and attaches timestamps.
func DecodeChannel(raw []byte, ch kdf.Channel, measured string) (*DecodedChannel, error) {
	if ch.Encoding.List {
		values, err := kdf.DecodeList(raw)
		if err != nil {
			return nil, err
		}
		return withSeries(values, timeline.Unavailable(len(values))), nil
	}

	layout, err := kdf.NewLayout(ch.Encoding.Format())
	if err != nil {
		return nil, err
	}
	records, err := kdf.DecodeRecords(raw, layout)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(records))
	for i, r := range records {
		values[i] = r.String()
	}

	var series timeline.Series
	if ch.Unit == UnitMillis {
		if layout.Columns() != 1 {
			return nil, fmt.Errorf("%w: got %q", errDeltaColumns, layout.Format)
		}
		deltas := make([]float64, len(records))
		for i, r := range records {
			deltas[i] = r[0].Float64()
		}
		code := layout.ColumnCode(0)
		series, err = timeline.Cumulative(measured, deltas, code == 'f' || code == 'e')
	} else {
		series, err = timeline.Uniform(measured, ch.SampleRate, ch.TotalValues)
	}
	if err != nil {
		return nil, err
	}
	return withSeries(values, series), nil
}

func withSeries(values []string, s timeline.Series) *DecodedChannel {
	return &DecodedChannel{
		Values:       values,
		Timestamps:   s.Timestamps,
		Milliseconds: s.Millis,
		Duration:     s.Duration,
		Datapoints:   len(values),
	}
}

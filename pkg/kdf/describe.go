package kdf

import "math"

// Summary is a JSON-friendly view of a header for listings.
type Summary struct {
	Tag               string           `json:"tag"`
	HeaderSize        uint32           `json:"header_size"`
	DataStart         int64            `json:"data_start"`
	MeasuredTimestamp string           `json:"measured_timestamp"`
	Channels          []ChannelSummary `json:"channels"`
}

type ChannelSummary struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Type     string `json:"type,omitempty"`
	Encoding string `json:"encoding"`
	// Stride is the record width in bytes, zero for list channels and
	// unknown codes.
	Stride     int      `json:"stride"`
	DataSize   int64    `json:"data_size"`
	DataOffset int64    `json:"data_offset"`
	SampleRate *float64 `json:"sample_rate"`
	// TotalValues is nil when the header value could not be read.
	TotalValues *int   `json:"total_values"`
	Unit        string `json:"unit,omitempty"`
}

// Describe summarises h. Unusable sample rates and counts become nulls.
func Describe(h *Header) Summary {
	s := Summary{
		Tag:               h.Tag,
		HeaderSize:        h.Size,
		DataStart:         h.DataStart(),
		MeasuredTimestamp: h.MeasuredTimestamp,
		Channels:          make([]ChannelSummary, len(h.Channels)),
	}
	for i, ch := range h.Channels {
		cs := ChannelSummary{
			Index:      ch.Index,
			Label:      ch.Label,
			Type:       ch.Type,
			Encoding:   ch.Encoding.Format(),
			DataSize:   ch.DataSize,
			DataOffset: ch.DataOffset,
			Unit:       ch.Unit,
		}
		if !ch.Encoding.List {
			if stride, err := Stride(cs.Encoding); err == nil {
				cs.Stride = stride
			}
		}
		if !math.IsNaN(ch.SampleRate) && !math.IsInf(ch.SampleRate, 0) {
			rate := ch.SampleRate
			cs.SampleRate = &rate
		}
		if ch.TotalValues >= 0 {
			n := ch.TotalValues
			cs.TotalValues = &n
		}
		s.Channels[i] = cs
	}
	return s
}

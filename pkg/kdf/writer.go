package kdf

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	json "github.com/goccy/go-json"
	"github.com/tinylib/msgp/msgp"
)

// formatVersion fills the reserved version bytes of written files.
const formatVersion = "001"

// ChannelPayload is a channel to be written with its raw bytes.
type ChannelPayload struct {
	Label       string
	Type        string
	Unit        string
	Encoding    Encoding
	SampleRate  float64
	TotalValues int
	Data        []byte
}

type headerOut struct {
	MeasuredTimestamp string       `json:"measured_timestamp"`
	Channels          []channelOut `json:"channels"`
}

type channelOut struct {
	Label       string  `json:"label"`
	Type        string  `json:"type"`
	DataEnc     any     `json:"data_enc"`
	DataSize    int     `json:"data_size"`
	DataURL     int     `json:"data_url"`
	SampleRate  float64 `json:"sample_rate"`
	TotalValues int     `json:"total_values"`
	Unit        string  `json:"unit"`
}

// Write encodes a KDF container with a header block of the given tag.
// Channel data is laid out back to back in the given order.
func Write(w io.Writer, tag, measuredTimestamp string, channels []ChannelPayload) error {
	out := headerOut{MeasuredTimestamp: measuredTimestamp, Channels: make([]channelOut, len(channels))}
	off := 0
	for i, ch := range channels {
		out.Channels[i] = channelOut{
			Label:       ch.Label,
			Type:        ch.Type,
			DataEnc:     encodingOut(ch.Encoding),
			DataSize:    len(ch.Data),
			DataURL:     off,
			SampleRate:  ch.SampleRate,
			TotalValues: ch.TotalValues,
			Unit:        ch.Unit,
		}
		off += len(ch.Data)
	}

	var block []byte
	switch tag {
	case TagJSON:
		b, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
		block = b
	case TagMsgpack:
		block = appendHeaderMsgpack(nil, out)
	default:
		return fmt.Errorf("unknown format tag %q", tag)
	}
	if uint64(len(block)) > math.MaxUint32 {
		return fmt.Errorf("header block too large: %d bytes", len(block))
	}

	var prologue [PrologueSize]byte
	copy(prologue[:tagSize], tag)
	copy(prologue[tagSize:], formatVersion)
	binary.LittleEndian.PutUint32(prologue[tagSize+versionSize:], uint32(len(block)))
	if _, err := w.Write(prologue[:]); err != nil {
		return err
	}
	if _, err := w.Write(block); err != nil {
		return err
	}
	for _, ch := range channels {
		if _, err := w.Write(ch.Data); err != nil {
			return fmt.Errorf("write channel %s: %w", ch.Label, err)
		}
	}
	return nil
}

func encodingOut(e Encoding) any {
	if e.List {
		return EncodingList
	}
	pairs := make([][]string, len(e.Fields))
	for i, f := range e.Fields {
		pairs[i] = []string{f.Name, string(f.Code)}
	}
	return pairs
}

func appendHeaderMsgpack(b []byte, h headerOut) []byte {
	b = msgp.AppendMapHeader(b, 2)
	b = msgp.AppendString(b, "measured_timestamp")
	b = msgp.AppendString(b, h.MeasuredTimestamp)
	b = msgp.AppendString(b, "channels")
	b = msgp.AppendArrayHeader(b, uint32(len(h.Channels)))
	for _, ch := range h.Channels {
		b = msgp.AppendMapHeader(b, 8)
		b = msgp.AppendString(b, "label")
		b = msgp.AppendString(b, ch.Label)
		b = msgp.AppendString(b, "type")
		b = msgp.AppendString(b, ch.Type)
		b = msgp.AppendString(b, "data_enc")
		switch enc := ch.DataEnc.(type) {
		case string:
			b = msgp.AppendString(b, enc)
		case [][]string:
			b = msgp.AppendArrayHeader(b, uint32(len(enc)))
			for _, pair := range enc {
				b = msgp.AppendArrayHeader(b, uint32(len(pair)))
				for _, s := range pair {
					b = msgp.AppendString(b, s)
				}
			}
		}
		b = msgp.AppendString(b, "data_size")
		b = msgp.AppendInt(b, ch.DataSize)
		b = msgp.AppendString(b, "data_url")
		b = msgp.AppendInt(b, ch.DataURL)
		b = msgp.AppendString(b, "sample_rate")
		b = msgp.AppendFloat64(b, ch.SampleRate)
		b = msgp.AppendString(b, "total_values")
		b = msgp.AppendInt(b, ch.TotalValues)
		b = msgp.AppendString(b, "unit")
		b = msgp.AppendString(b, ch.Unit)
	}
	return b
}

package kdf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

type rawHeader struct {
	MeasuredTimestamp string        `json:"measured_timestamp"`
	Channels          *[]rawChannel `json:"channels"`
}

type rawChannel struct {
	Label       string          `json:"label"`
	Type        string          `json:"type"`
	DataEnc     json.RawMessage `json:"data_enc"`
	DataSize    json.RawMessage `json:"data_size"`
	DataURL     json.RawMessage `json:"data_url"`
	SampleRate  json.RawMessage `json:"sample_rate"`
	TotalValues json.RawMessage `json:"total_values"`
	Unit        string          `json:"unit"`
}

// ReadHeader reads the prologue and header block from r. On success r is
// positioned at the first byte of the data region.
func ReadHeader(r io.Reader) (*Header, error) {
	var prologue [PrologueSize]byte
	if _, err := io.ReadFull(r, prologue[:]); err != nil {
		return nil, headerErr("", fmt.Errorf("read prologue: %w", err))
	}
	tag := string(prologue[:tagSize])
	size := binary.LittleEndian.Uint32(prologue[tagSize+versionSize:])

	// LimitReader avoids trusting size for the allocation.
	block, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, headerErr(tag, fmt.Errorf("read header block: %w", err))
	}
	if len(block) != int(size) {
		return nil, headerErr(tag, fmt.Errorf("header block truncated: got %d of %d bytes", len(block), size))
	}

	hdr, err := ParseHeaderBlock(tag, block)
	if err != nil {
		return nil, err
	}
	hdr.Size = size
	return hdr, nil
}

// ParseHeaderBlock decodes a header block according to its format tag.
func ParseHeaderBlock(tag string, block []byte) (*Header, error) {
	var doc []byte
	switch tag {
	case TagJSON:
		doc = block
	case TagMsgpack:
		js, err := msgpackToJSON(block)
		if err != nil {
			return nil, headerErr(tag, fmt.Errorf("decode msgpack header: %w", err))
		}
		doc = js
	default:
		return nil, headerErr(tag, fmt.Errorf("unknown format tag %q", tag))
	}

	var raw rawHeader
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, headerErr(tag, fmt.Errorf("decode header: %w", err))
	}
	if raw.Channels == nil {
		return nil, headerErr(tag, errors.New("missing channels field"))
	}

	hdr := &Header{
		Tag:               tag,
		Size:              uint32(len(block)),
		MeasuredTimestamp: raw.MeasuredTimestamp,
		Channels:          make([]Channel, 0, len(*raw.Channels)),
	}
	for i, rc := range *raw.Channels {
		ch, err := rc.channel(i)
		if err != nil {
			if errors.Is(err, ErrParserData) {
				return nil, err
			}
			return nil, headerErr(tag, err)
		}
		hdr.Channels = append(hdr.Channels, ch)
	}
	return hdr, nil
}

func (rc rawChannel) channel(index int) (Channel, error) {
	enc, err := parseEncoding(rc.DataEnc)
	if err != nil {
		return Channel{}, fmt.Errorf("channel %d (%s): %w", index, rc.Label, err)
	}
	size, err := coerceInt(rc.DataSize)
	if err != nil {
		return Channel{}, &ChannelError{Index: index, Label: rc.Label, Field: "data_size", Cause: err}
	}
	off, err := coerceInt(rc.DataURL)
	if err != nil {
		return Channel{}, &ChannelError{Index: index, Label: rc.Label, Field: "data_url", Cause: err}
	}

	// Rate and count problems only matter to the timestamp policy that
	// uses them, so they are reported there.
	rate, err := coerceFloat(rc.SampleRate)
	if err != nil {
		rate = math.NaN()
	}
	total, err := coerceInt(rc.TotalValues)
	if err != nil {
		total = -1
	}

	return Channel{
		Index:       index,
		Label:       rc.Label,
		Type:        rc.Type,
		Encoding:    enc,
		DataSize:    size,
		DataOffset:  off,
		SampleRate:  rate,
		TotalValues: int(total),
		Unit:        rc.Unit,
	}, nil
}

// parseEncoding accepts "list" or an ordered list of [name, code] pairs.
func parseEncoding(raw json.RawMessage) (Encoding, error) {
	var tag string
	if err := json.Unmarshal(raw, &tag); err == nil {
		if tag == EncodingList {
			return Encoding{List: true}, nil
		}
		return Encoding{}, fmt.Errorf("data_enc: unsupported encoding %q", tag)
	}

	var pairs [][]string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return Encoding{}, fmt.Errorf("data_enc: expected %q or [name, code] pairs: %w", EncodingList, err)
	}
	if len(pairs) == 0 {
		return Encoding{}, errors.New("data_enc: no fields")
	}
	fields := make([]Field, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 || len(p[1]) != 1 {
			return Encoding{}, fmt.Errorf("data_enc: field %d: expected [name, code], got %v", i, p)
		}
		fields[i] = Field{Name: p[0], Code: p[1][0]}
	}
	return Encoding{Fields: fields}, nil
}

// coerceInt accepts integer literals, truncates fractional numbers and
// parses decimal strings.
func coerceInt(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing value")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case 't':
		if bytes.Equal(raw, []byte("true")) {
			return 1, nil
		}
	case 'f':
		if bytes.Equal(raw, []byte("false")) {
			return 0, nil
		}
	default:
		lit := string(raw)
		if v, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return v, nil
		}
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return 0, err
		}
		if math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
			return 0, fmt.Errorf("value %s out of range", lit)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("not a number: %s", raw)
}

func coerceFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	return strconv.ParseFloat(string(raw), 64)
}

package kdf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/tinylib/msgp/msgp"
)

func testChannels() []ChannelPayload {
	return []ChannelPayload{
		{
			Label:       "ACC",
			Type:        "acc",
			Unit:        "g",
			Encoding:    Encoding{Fields: []Field{{"x", 'f'}, {"y", 'f'}, {"z", 'd'}}},
			SampleRate:  50,
			TotalValues: 2,
			Data:        make([]byte, 32),
		},
		{
			Label:       "MARKER",
			Type:        "marker",
			Encoding:    Encoding{List: true},
			TotalValues: 1,
			Data:        []byte(`{"a":1}`),
		},
	}
}

func encodeFile(t *testing.T, tag string, channels []ChannelPayload) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, tag, "2024-01-01T00:00:00Z", channels); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestReadHeaderJSONAndMsgpack(t *testing.T) {
	t.Parallel()

	for _, tag := range []string{TagJSON, TagMsgpack} {
		data := encodeFile(t, tag, testChannels())
		r := bytes.NewReader(data)
		hdr, err := ReadHeader(r)
		if err != nil {
			t.Fatalf("%s: ReadHeader: %v", tag, err)
		}
		size := binary.LittleEndian.Uint32(data[10:14])
		if hdr.Size != size {
			t.Fatalf("%s: header size: got %d want %d", tag, hdr.Size, size)
		}
		if hdr.DataStart() != int64(14+size) {
			t.Fatalf("%s: data start: got %d want %d", tag, hdr.DataStart(), 14+size)
		}
		// reader is left at the data region
		if pos := int64(len(data)) - int64(r.Len()); pos != hdr.DataStart() {
			t.Fatalf("%s: reader position: got %d want %d", tag, pos, hdr.DataStart())
		}
		if hdr.MeasuredTimestamp != "2024-01-01T00:00:00Z" {
			t.Fatalf("%s: measured timestamp: got %q", tag, hdr.MeasuredTimestamp)
		}
		if len(hdr.Channels) != 2 {
			t.Fatalf("%s: channels: got %d want 2", tag, len(hdr.Channels))
		}
		acc := hdr.Channels[0]
		if acc.Label != "ACC" || acc.Encoding.Format() != "ffd" || acc.DataSize != 32 || acc.DataOffset != 0 {
			t.Fatalf("%s: unexpected first channel: %+v", tag, acc)
		}
		if acc.SampleRate != 50 || acc.TotalValues != 2 || acc.Unit != "g" {
			t.Fatalf("%s: unexpected first channel timing: %+v", tag, acc)
		}
		marker := hdr.Channels[1]
		if !marker.Encoding.List || marker.DataOffset != 32 || marker.Index != 1 {
			t.Fatalf("%s: unexpected second channel: %+v", tag, marker)
		}
	}
}

func TestReadHeaderUnknownTag(t *testing.T) {
	t.Parallel()

	data := encodeFile(t, TagJSON, testChannels())
	copy(data, "GARBAGE")
	_, err := ReadHeader(bytes.NewReader(data))
	if !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("expected ErrHeaderNotFound, got %v", err)
	}
	var he *HeaderError
	if !errors.As(err, &he) || he.Tag != "GARBAGE" {
		t.Fatalf("expected HeaderError with tag, got %#v", err)
	}
}

func TestReadHeaderTruncated(t *testing.T) {
	t.Parallel()

	data := encodeFile(t, TagJSON, testChannels())
	for _, n := range []int{0, 5, 13, 20} {
		if _, err := ReadHeader(bytes.NewReader(data[:n])); !errors.Is(err, ErrHeaderNotFound) {
			t.Fatalf("len %d: expected ErrHeaderNotFound, got %v", n, err)
		}
	}
}

func TestParseHeaderBlockMissingChannels(t *testing.T) {
	t.Parallel()

	_, err := ParseHeaderBlock(TagJSON, []byte(`{"measured_timestamp":"2024-01-01T00:00:00Z"}`))
	if !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("expected ErrHeaderNotFound, got %v", err)
	}

	block := msgp.AppendMapHeader(nil, 1)
	block = msgp.AppendString(block, "measured_timestamp")
	block = msgp.AppendString(block, "2024-01-01T00:00:00Z")
	if _, err := ParseHeaderBlock(TagMsgpack, block); !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("msgpack: expected ErrHeaderNotFound, got %v", err)
	}

	if _, err := ParseHeaderBlock(TagJSON, []byte(`{not json`)); !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("invalid json: expected ErrHeaderNotFound, got %v", err)
	}
}

func TestParseHeaderBlockCoercesOffsets(t *testing.T) {
	t.Parallel()

	block := []byte(`{"measured_timestamp":"x","channels":[
		{"label":"A","type":"a","data_enc":[["v","f"]],"data_size":"8","data_url":" 4 ","sample_rate":"10","total_values":2,"unit":""},
		{"label":"B","type":"b","data_enc":"list","data_size":3.0,"data_url":12.9,"sample_rate":1,"total_values":1,"unit":""}
	]}`)
	hdr, err := ParseHeaderBlock(TagJSON, block)
	if err != nil {
		t.Fatalf("ParseHeaderBlock: %v", err)
	}
	a, b := hdr.Channels[0], hdr.Channels[1]
	if a.DataSize != 8 || a.DataOffset != 4 || a.SampleRate != 10 {
		t.Fatalf("channel A: %+v", a)
	}
	if b.DataSize != 3 || b.DataOffset != 12 {
		t.Fatalf("channel B: %+v", b)
	}
}

func TestParseHeaderBlockParserDataError(t *testing.T) {
	t.Parallel()

	block := []byte(`{"measured_timestamp":"x","channels":[
		{"label":"A","type":"a","data_enc":[["v","f"]],"data_size":"eight","data_url":0,"sample_rate":1,"total_values":2,"unit":""}
	]}`)
	_, err := ParseHeaderBlock(TagJSON, block)
	if !errors.Is(err, ErrParserData) {
		t.Fatalf("expected ErrParserData, got %v", err)
	}
	if errors.Is(err, ErrHeaderNotFound) {
		t.Fatal("parser data error must not report a missing header")
	}
	var ce *ChannelError
	if !errors.As(err, &ce) || ce.Field != "data_size" || ce.Label != "A" {
		t.Fatalf("expected ChannelError for data_size, got %#v", err)
	}
}

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	enc, err := parseEncoding([]byte(`[["x","f"],["y","l"]]`))
	if err != nil {
		t.Fatalf("parseEncoding: %v", err)
	}
	if enc.List || enc.Format() != "fl" || enc.Fields[1].Name != "y" {
		t.Fatalf("unexpected encoding: %+v", enc)
	}
	for _, raw := range []string{`"int"`, `[]`, `[["x"]]`, `[["x","ff"]]`, `42`} {
		if _, err := parseEncoding([]byte(raw)); err == nil {
			t.Fatalf("parseEncoding(%s): expected error", raw)
		}
	}
}

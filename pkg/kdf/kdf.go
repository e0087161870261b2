// Package kdf reads KDF sensor containers.
//
// A KDF file is a 14 byte prologue followed by a JSON or MessagePack header
// block and a raw data region holding each channel's samples. Channel data
// offsets in the header are relative to the first byte after the header
// block.
package kdf

// KDF prologue constants never change.
const (
	// TagJSON marks a file whose header block is JSON text.
	TagJSON = "KDFJSON"
	// TagMsgpack marks a file whose header block is MessagePack.
	TagMsgpack = "KDFMSGP"

	tagSize       = 7
	versionSize   = 3 // not interpreted
	sizeFieldSize = 4

	// PrologueSize is the offset of the header block.
	PrologueSize = tagSize + versionSize + sizeFieldSize
)

// EncodingList is the data_enc value of self-describing channels.
const EncodingList = "list"

// Header is the parsed header block of a KDF file.
type Header struct {
	Tag               string
	Size              uint32
	MeasuredTimestamp string
	Channels          []Channel
}

// DataStart is the absolute file offset of the raw data region.
func (h *Header) DataStart() int64 {
	return int64(PrologueSize) + int64(h.Size)
}

// Channel describes one sensor channel and where its bytes live.
type Channel struct {
	Index       int
	Label       string
	Type        string
	Encoding    Encoding
	DataSize    int64
	DataOffset  int64
	SampleRate  float64
	TotalValues int
	Unit        string
}

// Field is one named member of a fixed binary record.
type Field struct {
	Name string
	Code byte
}

// Encoding is either the list tag or a fixed record layout.
type Encoding struct {
	List   bool
	Fields []Field
}

// Format joins the field codes, e.g. "ffd".
func (e Encoding) Format() string {
	if e.List {
		return EncodingList
	}
	b := make([]byte, len(e.Fields))
	for i, f := range e.Fields {
		b[i] = f.Code
	}
	return string(b)
}

func (e Encoding) String() string {
	return e.Format()
}

package kdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tinylib/msgp/msgp"
)

// DecodeList decodes a self-describing channel payload and renders every
// entry as "key: value, key: value". A payload starting with '{' is a single
// JSON object, one starting with '[' is a JSON array of objects, anything
// else is MessagePack holding either form.
func DecodeList(raw []byte) ([]string, error) {
	var doc []byte
	switch {
	case bytes.HasPrefix(raw, []byte("{")), bytes.HasPrefix(raw, []byte("[")):
		doc = raw
	default:
		js, err := msgpackToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: list payload: %v", ErrMalformedData, err)
		}
		doc = js
	}

	v, err := parseOrdered(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: list payload: %v", ErrMalformedData, err)
	}

	var entries []orderedValue
	switch v.kind {
	case kindObject:
		entries = []orderedValue{v}
	case kindArray:
		entries = v.items
	default:
		return nil, fmt.Errorf("%w: list payload is neither object nor array", ErrMalformedData)
	}

	out := make([]string, len(entries))
	for i, e := range entries {
		if e.kind != kindObject {
			return nil, fmt.Errorf("%w: list entry %d is not an object", ErrMalformedData, i)
		}
		out[i] = renderEntry(e)
	}
	return out, nil
}

// msgpackToJSON converts exactly one MessagePack object to JSON text,
// keeping map key order.
func msgpackToJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	rest, err := msgp.UnmarshalAsJSON(&buf, raw)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%d trailing bytes after msgpack object", len(rest))
	}
	return buf.Bytes(), nil
}

type valueKind uint8

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

type member struct {
	key string
	val orderedValue
}

// orderedValue is a decoded JSON value whose objects keep key order.
type orderedValue struct {
	kind    valueKind
	boolean bool
	text    string // string contents or number literal
	items   []orderedValue
	members []member
}

func parseOrdered(doc []byte) (orderedValue, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	v, err := readValue(dec)
	if err != nil {
		return orderedValue{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return orderedValue{}, errors.New("trailing data after JSON value")
	}
	return v, nil
}

func readValue(dec *json.Decoder) (orderedValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return orderedValue{}, err
	}
	switch t := tok.(type) {
	case nil:
		return orderedValue{kind: kindNull}, nil
	case bool:
		return orderedValue{kind: kindBool, boolean: t}, nil
	case json.Number:
		return orderedValue{kind: kindNumber, text: t.String()}, nil
	case string:
		return orderedValue{kind: kindString, text: t}, nil
	case json.Delim:
		switch t {
		case '[':
			v := orderedValue{kind: kindArray}
			for dec.More() {
				item, err := readValue(dec)
				if err != nil {
					return orderedValue{}, err
				}
				v.items = append(v.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return orderedValue{}, err
			}
			return v, nil
		case '{':
			v := orderedValue{kind: kindObject}
			for dec.More() {
				ktok, err := dec.Token()
				if err != nil {
					return orderedValue{}, err
				}
				key, ok := ktok.(string)
				if !ok {
					return orderedValue{}, fmt.Errorf("unexpected object key %v", ktok)
				}
				val, err := readValue(dec)
				if err != nil {
					return orderedValue{}, err
				}
				v.members = append(v.members, member{key: key, val: val})
			}
			if _, err := dec.Token(); err != nil {
				return orderedValue{}, err
			}
			return v, nil
		}
	}
	return orderedValue{}, fmt.Errorf("unexpected token %v", tok)
}

func renderEntry(v orderedValue) string {
	var b strings.Builder
	for i, m := range v.members {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(m.key)
		b.WriteString(": ")
		b.WriteString(displayValue(m.val))
	}
	return b.String()
}

// displayValue prints strings bare and everything else in literal form.
func displayValue(v orderedValue) string {
	if v.kind == kindString {
		return v.text
	}
	return literal(v)
}

func literal(v orderedValue) string {
	switch v.kind {
	case kindNull:
		return "None"
	case kindBool:
		if v.boolean {
			return "True"
		}
		return "False"
	case kindNumber:
		return numberLiteral(v.text)
	case kindString:
		return quote(v.text)
	case kindArray:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = literal(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case kindObject:
		parts := make([]string, len(v.members))
		for i, m := range v.members {
			parts[i] = quote(m.key) + ": " + literal(m.val)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

func numberLiteral(lit string) string {
	if !strings.ContainsAny(lit, ".eE") {
		if strings.TrimLeft(lit, "-0") == "" {
			return "0"
		}
		return lit
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	return shortFloat(f)
}

// shortFloat is the shortest round-trip form, switching to exponent
// notation outside [1e-4, 1e16).
func shortFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	idx := strings.LastIndexByte(e, 'e')
	exp, _ := strconv.Atoi(e[idx+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

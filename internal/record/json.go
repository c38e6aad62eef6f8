package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// CircularMarker replaces a sequence or mapping that is reached again while
// it is still being encoded.
const CircularMarker = "[Circular]"

// TimestampLayout is the layout used to encode timestamps: UTC with
// millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrNotObject is returned when a JSON line does not hold an object.
var ErrNotObject = errors.New("record is not a JSON object")

// AppendJSON appends the JSON encoding of v to dst.
//
// Keys are written in insertion order. A sequence or mapping that appears
// inside itself is written as CircularMarker; a sub-structure that is merely
// shared between two fields is written out in full at both places.
// Non-finite floats are written as null. Blobs are base64 encoded.
func AppendJSON(dst []byte, v Value) []byte {
	e := encoder{path: make(map[Value]struct{})}
	return e.append(dst, v)
}

// encoder tracks the sequences and mappings on the current path from the
// root so that only true cycles are cut.
type encoder struct {
	path map[Value]struct{}
}

func (e *encoder) append(dst []byte, v Value) []byte {
	switch x := v.(type) {
	case nil, Null:
		return append(dst, "null"...)
	case Bool:
		return strconv.AppendBool(dst, bool(x))
	case Int:
		return strconv.AppendInt(dst, int64(x), 10)
	case Float:
		return appendFloat(dst, float64(x))
	case Text:
		return appendString(dst, string(x))
	case Blob:
		return appendString(dst, base64.StdEncoding.EncodeToString(x))
	case Timestamp:
		return appendString(dst, time.Time(x).UTC().Format(TimestampLayout))
	case *Sequence:
		if x == nil {
			return append(dst, "null"...)
		}
		if _, ok := e.path[x]; ok {
			return appendString(dst, CircularMarker)
		}
		e.path[x] = struct{}{}
		dst = append(dst, '[')
		for i, item := range x.Items {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = e.append(dst, item)
		}
		delete(e.path, x)
		return append(dst, ']')
	case *Mapping:
		if x == nil {
			return append(dst, "null"...)
		}
		if _, ok := e.path[x]; ok {
			return appendString(dst, CircularMarker)
		}
		e.path[x] = struct{}{}
		dst = append(dst, '{')
		for i, k := range x.keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendString(dst, k)
			dst = append(dst, ':')
			dst = e.append(dst, x.values[k])
		}
		delete(e.path, x)
		return append(dst, '}')
	default:
		panic(fmt.Sprintf("record: unknown value type %T", v))
	}
}

// appendFloat follows the number formatting of encoding/json.
func appendFloat(dst []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(dst, "null"...)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.AppendFloat(dst, f, format, -1, 64)
}

const hexDigits = "0123456789abcdef"

// appendString writes s as a JSON string. Unlike encoding/json it leaves
// <, > and & alone, so log lines stay readable.
func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		if b := s[i]; b < utf8.RuneSelf {
			if b >= 0x20 && b != '"' && b != '\\' {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch b {
			case '"', '\\':
				dst = append(dst, '\\', b)
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[b>>4], hexDigits[b&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, s[start:i]...)
			dst = append(dst, `\ufffd`...)
			i += size
			start = i
			continue
		}
		if r == '\u2028' || r == '\u2029' {
			dst = append(dst, s[start:i]...)
			dst = append(dst, '\\', 'u', '2', '0', '2', hexDigits[r&0xF])
			i += size
			start = i
			continue
		}
		i += size
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

// DecodeJSON parses a single JSON value. Object keys keep their order in
// the resulting mappings. Integral numbers become Int, others Float.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// DecodeRecord parses one NDJSON line into a mapping.
func DecodeRecord(line []byte) (*Mapping, error) {
	v, err := DecodeJSON(line)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Mapping)
	if !ok {
		return nil, ErrNotObject
	}
	return m, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMapping(8)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			seq := &Sequence{Items: make([]Value, 0, 4)}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				seq.Items = append(seq.Items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberValue(string(t)), nil
	case string:
		return Text(t), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Value is a node of a record value graph.
// The set of implementations is closed: Null, Bool, Int, Float, Text, Blob,
// Timestamp, *Sequence and *Mapping.
type Value interface {
	isValue()
}

// Null is the absent value.
type Null struct{}

// Bool is a boolean scalar.
type Bool bool

// Int is an integral number.
type Int int64

// Float is a floating point number.
type Float float64

// Text is a string value.
type Text string

// Blob is a binary payload.
type Blob []byte

// Timestamp is a point in time.
type Timestamp time.Time

// Sequence is an ordered list of values.
type Sequence struct {
	Items []Value
}

// Mapping is an ordered set of key/value pairs.
// Keys keep the order in which they were first set.
// The zero value is an empty mapping ready to use.
type Mapping struct {
	keys   []string
	values map[string]Value
}

func (Null) isValue()      {}
func (Bool) isValue()      {}
func (Int) isValue()       {}
func (Float) isValue()     {}
func (Text) isValue()      {}
func (Blob) isValue()      {}
func (Timestamp) isValue() {}
func (*Sequence) isValue() {}
func (*Mapping) isValue()  {}

// NewSequence returns a sequence holding the given items.
func NewSequence(items ...Value) *Sequence {
	return &Sequence{Items: items}
}

// Len returns the number of items.
func (s *Sequence) Len() int {
	return len(s.Items)
}

// NewMapping returns an empty mapping with room for n keys.
func NewMapping(n int) *Mapping {
	return &Mapping{
		keys:   make([]string, 0, n),
		values: make(map[string]Value, n),
	}
}

// Set stores v under key. A new key is appended to the key order; an
// existing key keeps its position.
func (m *Mapping) Set(key string, v Value) *Mapping {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key from the mapping.
func (m *Mapping) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Range calls fn for every pair in insertion order until fn returns false.
func (m *Mapping) Range(fn func(key string, v Value) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a shallow copy: a new mapping with the same keys in the
// same order, pointing at the same values.
func (m *Mapping) Clone() *Mapping {
	c := NewMapping(len(m.keys))
	for _, k := range m.keys {
		c.Set(k, m.values[k])
	}
	return c
}

// String returns the JSON encoding of the mapping.
func (m *Mapping) String() string {
	return string(AppendJSON(nil, m))
}

// MarshalJSON implements json.Marshaler with key order preserved.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	return AppendJSON(nil, m), nil
}

// MarshalJSON implements json.Marshaler.
func (s *Sequence) MarshalJSON() ([]byte, error) {
	return AppendJSON(nil, s), nil
}

// Of converts a Go value into a record Value.
//
// Maps with string keys become mappings with keys sorted, since Go map order
// is random. Errors and fmt.Stringers become text. Anything else that has
// no natural variant is formatted with fmt and stored as text.
func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int8:
		return Int(x)
	case int16:
		return Int(x)
	case int32:
		return Int(x)
	case int64:
		return Int(x)
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return Int(x)
	case uint16:
		return Int(x)
	case uint32:
		return Int(x)
	case uint64:
		return uintValue(x)
	case float32:
		return Float(x)
	case float64:
		return Float(x)
	case json.Number:
		return numberValue(string(x))
	case string:
		return Text(x)
	case []byte:
		return Blob(x)
	case time.Time:
		return Timestamp(x)
	case time.Duration:
		return Text(x.String())
	case []any:
		seq := &Sequence{Items: make([]Value, len(x))}
		for i, item := range x {
			seq.Items[i] = Of(item)
		}
		return seq
	case []string:
		seq := &Sequence{Items: make([]Value, len(x))}
		for i, item := range x {
			seq.Items[i] = Text(item)
		}
		return seq
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping(len(keys))
		for _, k := range keys {
			m.Set(k, Of(x[k]))
		}
		return m
	case map[string]string:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping(len(keys))
		for _, k := range keys {
			m.Set(k, Text(x[k]))
		}
		return m
	case map[string]int:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping(len(keys))
		for _, k := range keys {
			m.Set(k, Int(x[k]))
		}
		return m
	case error:
		return Text(x.Error())
	case fmt.Stringer:
		return Text(x.String())
	default:
		return Text(fmt.Sprintf("%+v", x))
	}
}

// uintValue keeps values that overflow int64 exact by storing them as text.
func uintValue(u uint64) Value {
	if u > 1<<63-1 {
		return Text(strconv.FormatUint(u, 10))
	}
	return Int(int64(u))
}

// numberValue parses a JSON number literal, preferring Int when exact.
func numberValue(s string) Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Text(s)
	}
	return Float(f)
}

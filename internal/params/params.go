package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Kind identifies how a Value was stored.
type Kind int

const (
	// KindString is a plain string value.
	KindString Kind = iota
	// KindInt is an integer value.
	KindInt
	// KindRaw holds any other JSON value (floats, booleans, nested objects)
	// verbatim so that it survives a read/write cycle untouched.
	KindRaw
)

// Value is a single bidder parameter: a string or an integer.
type Value struct {
	kind Kind
	str  string
	num  int64
	raw  json.RawMessage
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer Value.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Raw returns a Value carrying an arbitrary JSON document.
func Raw(b json.RawMessage) Value {
	cp := make(json.RawMessage, len(b))
	copy(cp, b)
	return Value{kind: KindRaw, raw: cp}
}

// Kind reports how the value is stored.
func (v Value) Kind() Kind { return v.kind }

// Int64 returns the integer and true when the value is an integer.
func (v Value) Int64() (int64, bool) {
	return v.num, v.kind == KindInt
}

// String renders the value the way it appears in cell text.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindRaw:
		return string(v.raw)
	default:
		return v.str
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.num == o.num
	case KindRaw:
		return bytes.Equal(v.raw, o.raw)
	default:
		return v.str == o.str
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	case KindRaw:
		if len(v.raw) == 0 {
			return []byte("null"), nil
		}
		return v.raw, nil
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	}
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*v = Int(n)
		return nil
	}
	if !json.Valid(b) {
		return fmt.Errorf("invalid param value %q", b)
	}
	*v = Raw(b)
	return nil
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an insertion-ordered key -> value map. Setting an existing key
// replaces its value and keeps its position.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

// NewMapping builds a Mapping from entries, later duplicates overwriting earlier ones.
func NewMapping(entries ...Entry) Mapping {
	var m Mapping
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set assigns value to key.
func (m *Mapping) Set(key string, value Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m Mapping) Get(key string) (Value, bool) {
	if i, ok := m.index[key]; ok {
		return m.entries[i].Value, true
	}
	return Value{}, false
}

// Len returns the number of keys.
func (m Mapping) Len() int { return len(m.entries) }

// Entries returns a copy of the entries in insertion order.
func (m Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Equal reports whether both mappings hold the same keys in the same order
// with equal values.
func (m Mapping) Equal(o Mapping) bool {
	if len(m.entries) != len(o.entries) {
		return false
	}
	for i, e := range m.entries {
		if e.Key != o.entries[i].Key || !e.Value.Equal(o.entries[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the mapping as a JSON object in entry order.
func (m Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the document's key order.
func (m *Mapping) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}
	out := Mapping{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode value for %q: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("decode value for %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// State distinguishes the three shapes a cell's params can take.
type State int

const (
	// StateAbsent means no mapping exists; saving it deletes the row.
	StateAbsent State = iota
	// StateEmpty is a mapping with no keys.
	StateEmpty
	// StatePresent is a mapping with at least one key.
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePresent:
		return "present"
	default:
		return "absent"
	}
}

// Params is the payload of a bidder config: absent, empty, or a mapping.
// The zero value is absent.
type Params struct {
	state   State
	mapping Mapping
}

// Absent returns the "no mapping" payload.
func Absent() Params { return Params{} }

// Empty returns an empty mapping.
func Empty() Params { return Params{state: StateEmpty} }

// FromMapping wraps m, yielding Empty when m has no keys.
func FromMapping(m Mapping) Params {
	if m.Len() == 0 {
		return Empty()
	}
	return Params{state: StatePresent, mapping: m}
}

// State returns the payload shape.
func (p Params) State() State { return p.state }

// IsAbsent reports whether the payload signals deletion.
func (p Params) IsAbsent() bool { return p.state == StateAbsent }

// Mapping returns the underlying mapping; empty for Absent and Empty.
func (p Params) Mapping() Mapping { return p.mapping }

// Equal compares two payloads including their state.
func (p Params) Equal(o Params) bool {
	return p.state == o.state && p.mapping.Equal(o.mapping)
}

// ErrNotObject is returned when stored params are not a JSON object.
var ErrNotObject = errors.New("params is not a JSON object")

// ParseJSON decodes stored params. Nil input or JSON null is Absent.
func ParseJSON(b []byte) (Params, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return Absent(), nil
	}
	var m Mapping
	if err := m.UnmarshalJSON(b); err != nil {
		return Absent(), err
	}
	return FromMapping(m), nil
}

// JSON encodes the payload for storage. Absent encodes to nil.
func (p Params) JSON() ([]byte, error) {
	switch p.state {
	case StateAbsent:
		return nil, nil
	case StateEmpty:
		return []byte("{}"), nil
	default:
		return p.mapping.MarshalJSON()
	}
}

// MarshalJSON implements json.Marshaler; Absent is null.
func (p Params) MarshalJSON() ([]byte, error) {
	if p.state == StateAbsent {
		return []byte("null"), nil
	}
	return p.JSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Params) UnmarshalJSON(b []byte) error {
	out, err := ParseJSON(b)
	if err != nil {
		return err
	}
	*p = out
	return nil
}

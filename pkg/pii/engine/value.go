package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Kind enumerates the closed set of value kinds the engines walk. Every
// switch over Kind in this package handles all cases; adding a kind without
// extending them is a compile-time-visible change, not a silent skip.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is one node of a structured tree: a JSON-like value that preserves
// object member order, so masked output serializes byte-compatibly with the
// input apart from the substituted strings.
type Value struct {
	kind Kind
	str  string
	num  json.Number
	b    bool
	arr  []Value
	obj  []Member
}

// Member is one ordered key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

func Null() Value               { return Value{kind: KindNull} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func String(s string) Value     { return Value{kind: KindString, str: s} }
func Array(vs ...Value) Value   { return Value{kind: KindArray, arr: vs} }
func Object(ms ...Member) Value { return Value{kind: KindObject, obj: ms} }

// Number builds a numeric value from its literal representation.
func Number(lit string) Value { return Value{kind: KindNumber, num: json.Number(lit)} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) Str() string       { return v.str }
func (v Value) Num() json.Number  { return v.num }
func (v Value) BoolVal() bool     { return v.b }
func (v Value) Items() []Value    { return v.arr }
func (v Value) Members() []Member { return v.obj }

// DecodeValue parses JSON into a Value, preserving member order and numeric
// literals exactly.
func DecodeValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readValue(dec)
	if err != nil {
		return Value{}, err
	}
	// Reject trailing garbage after the first value.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("engine: trailing data after JSON value")
	}
	return v, nil
}

func readValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Value{kind: KindNumber, num: t}, nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := readValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return Value{kind: KindArray, arr: items}, nil
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("engine: object key is not a string")
				}
				val, err := readValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return Value{kind: KindObject, obj: members}, nil
		}
	}
	return Value{}, fmt.Errorf("engine: unexpected JSON token %v", tok)
}

// MarshalJSON serializes the tree, keeping object member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(string(v.num))
	case KindString:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// mapStrings rebuilds the tree with f applied to every string leaf. All
// other leaf kinds pass through unchanged.
func (v Value) mapStrings(f func(string) string) Value {
	switch v.kind {
	case KindNull, KindBool, KindNumber:
		return v
	case KindString:
		return String(f(v.str))
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.mapStrings(f)
		}
		return Value{kind: KindArray, arr: items}
	case KindObject:
		members := make([]Member, len(v.obj))
		for i, m := range v.obj {
			members[i] = Member{Key: m.Key, Value: m.Value.mapStrings(f)}
		}
		return Value{kind: KindObject, obj: members}
	}
	return v
}

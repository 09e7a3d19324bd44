package themesettings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind enumerates the JSON shapes a setting value can take.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single setting value. The zero Value is JSON null.
type Value struct {
	kind Kind
	b    bool
	n    json.Number
	s    string
	list []Value
	obj  map[string]Value
}

func Null() Value                  { return Value{} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func String(s string) Value        { return Value{kind: KindString, s: s} }
func List(items ...Value) Value    { return Value{kind: KindList, list: append([]Value{}, items...)} }
func Object(m map[string]Value) Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v.clone()
	}
	return Value{kind: KindObject, obj: out}
}

// Number builds a numeric value from a float.
func Number(f float64) Value {
	return Value{kind: KindNumber, n: json.Number(fmt.Sprint(f))}
}

// Strings builds a list of string values.
func Strings(items ...string) Value {
	list := make([]Value, len(items))
	for i, s := range items {
		list[i] = String(s)
	}
	return Value{kind: KindList, list: list}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.n.Float64()
	return f, err == nil
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]Value{}, v.list...), true
}

func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return Object(v.obj).obj, true
}

// AsStrings reports the value as a list of strings. It fails if the value is
// not a list or any element is not a string.
func (v Value) AsStrings() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]string, 0, len(v.list))
	for _, item := range v.list {
		s, ok := item.AsString()
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Interface converts the value into plain Go values (nil, bool, float64,
// string, []any, map[string]any).
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		f, _ := v.n.Float64()
		return f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep equality. Numbers compare by value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		a, _ := v.AsNumber()
		b, _ := o.AsNumber()
		return a == b
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, item := range v.obj {
			other, ok := o.obj[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) clone() Value {
	switch v.kind {
	case KindList:
		list := make([]Value, len(v.list))
		for i, item := range v.list {
			list[i] = item.clone()
		}
		v.list = list
	case KindObject:
		v = Object(v.obj)
	}
	return v
}

func (v Value) String() string {
	raw, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(raw)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return []byte(v.n.String()), nil
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			buf.Write(key)
			buf.WriteByte(':')
			raw, err := v.obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("themesettings: unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := fromInterface(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func fromInterface(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		return Value{kind: KindNumber, n: x}, nil
	case float64:
		return Number(x), nil
	case string:
		return String(x), nil
	case []any:
		list := make([]Value, len(x))
		for i, item := range x {
			val, err := fromInterface(item)
			if err != nil {
				return Value{}, err
			}
			list[i] = val
		}
		return Value{kind: KindList, list: list}, nil
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			val, err := fromInterface(item)
			if err != nil {
				return Value{}, err
			}
			obj[k] = val
		}
		return Value{kind: KindObject, obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("themesettings: unsupported json value %T", raw)
	}
}

package qparse

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindAbsent Kind = iota // no value at all
	KindNull               // explicit null / empty-object marker
	KindText               // a single text value
	KindList               // an ordered sequence of values
	KindMap                // a nested mapping from text keys to values
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one node of decoded query data.
//
// The zero Value is absent. Values are immutable: constructors copy
// nothing, so callers must not mutate slices or maps they handed over.
type Value struct {
	kind   Kind
	text   string
	list   []Value
	fields map[string]Value
}

func Absent() Value {
	return Value{}
}

func Null() Value {
	return Value{kind: KindNull}
}

func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

func List(values ...Value) Value {
	return Value{kind: KindList, list: values}
}

// Strings builds a list of text values.
func Strings(values ...string) Value {
	list := make([]Value, len(values))
	for i, s := range values {
		list[i] = Text(s)
	}
	return List(list...)
}

// Map builds a nested mapping. A nil map is still a (empty) map.
func Map(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindMap, fields: fields}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether v carries no coercible data: absent or null.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent || v.kind == KindNull
}

func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

func (v Value) List() ([]Value, bool) {
	return v.list, v.kind == KindList
}

func (v Value) Map() (map[string]Value, bool) {
	return v.fields, v.kind == KindMap
}

// Get returns the value stored under key. On a list the key is read as a
// decimal index. Every other case yields Absent.
func (v Value) Get(key string) Value {
	switch v.kind {
	case KindMap:
		return v.fields[key]
	case KindList:
		i, err := strconv.Atoi(key)
		if err != nil {
			return Absent()
		}
		return v.Index(i)
	default:
		return Absent()
	}
}

// Index returns the value at position i. On a map the position is read
// from the decimal key, which is how query decoders spell long arrays.
func (v Value) Index(i int) Value {
	switch v.kind {
	case KindList:
		if i < 0 || i >= len(v.list) {
			return Absent()
		}
		return v.list[i]
	case KindMap:
		return v.fields[strconv.Itoa(i)]
	default:
		return Absent()
	}
}

// String renders v for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return strconv.Quote(v.text)
	case KindList:
		s := "["
		for i, item := range v.list {
			if i > 0 {
				s += " "
			}
			s += item.String()
		}
		return s + "]"
	case KindMap:
		keys := make([]string, 0, len(v.fields))
		for k := range v.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "{"
		for i, k := range keys {
			if i > 0 {
				s += " "
			}
			s += k + ":" + v.fields[k].String()
		}
		return s + "}"
	default:
		return v.kind.String()
	}
}

// FromValues converts url.Values into a map Value. A key with a single
// value becomes text, a repeated key becomes a list.
func FromValues(values url.Values) Value {
	fields := make(map[string]Value, len(values))
	for key, vs := range values {
		switch len(vs) {
		case 0:
			fields[key] = Absent()
		case 1:
			fields[key] = Text(vs[0])
		default:
			fields[key] = Strings(vs...)
		}
	}
	return Map(fields)
}

// FromAny converts a plain Go tree, such as the output of a query decoder
// or a json.Unmarshal into any, into a Value.
//
// Currently supports:
//   - nil (null)
//   - string, fmt.Stringer
//   - []string, []any
//   - map[string]string, map[string][]string, map[string]any
//   - Value (returned as is)
func FromAny(data any) (Value, error) {
	switch d := data.(type) {
	case nil:
		return Null(), nil
	case Value:
		return d, nil
	case string:
		return Text(d), nil
	case []string:
		return Strings(d...), nil
	case []any:
		list := make([]Value, len(d))
		for i, item := range d {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = v
		}
		return List(list...), nil
	case map[string]string:
		fields := make(map[string]Value, len(d))
		for k, s := range d {
			fields[k] = Text(s)
		}
		return Map(fields), nil
	case map[string][]string:
		return FromValues(url.Values(d)), nil
	case map[string]any:
		fields := make(map[string]Value, len(d))
		for k, item := range d {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			fields[k] = v
		}
		return Map(fields), nil
	case fmt.Stringer:
		return Text(d.String()), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedInput, data)
	}
}

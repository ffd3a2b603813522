package qparse

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// FromJSON converts a JSON document into a Value:
//   - objects become maps
//   - arrays become lists
//   - strings become their text
//   - numbers and booleans become their raw JSON text ("12.5", "true")
//   - null becomes Null
func FromJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, ErrInvalidJSON
	}
	return fromJSONResult(gjson.ParseBytes(data)), nil
}

// FromJSONPath is FromJSON on the part of the document selected by a gjson
// path. A path matching nothing gives Absent.
func FromJSONPath(data []byte, path string) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, ErrInvalidJSON
	}
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return Absent(), nil
	}
	return fromJSONResult(result), nil
}

func fromJSONResult(result gjson.Result) Value {
	switch {
	case result.IsObject():
		fields := make(map[string]Value)
		result.ForEach(func(key, value gjson.Result) bool {
			fields[key.String()] = fromJSONResult(value)
			return true
		})
		return Map(fields)
	case result.IsArray():
		items := result.Array()
		list := make([]Value, len(items))
		for i, item := range items {
			list[i] = fromJSONResult(item)
		}
		return List(list...)
	}

	switch result.Type {
	case gjson.Null:
		return Null()
	case gjson.String:
		return Text(result.Str)
	case gjson.Number, gjson.True, gjson.False:
		return Text(result.Raw)
	default:
		return Text(fmt.Sprint(result.Value()))
	}
}

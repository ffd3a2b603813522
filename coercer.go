package qparse

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Coercer turns one raw Value into a typed value. The boolean result is
// false when the value is absent or cannot be coerced; a Coercer never
// fails any other way.
//
// Coercers are pure: the same input always gives the same output and a
// Coercer may be shared across templates and goroutines.
type Coercer[T any] func(v Value) (T, bool)

var (
	integerPattern = regexp.MustCompile(`^-?[0-9]+$`)
	naturalPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Then chains a plain transform after c. The transform only runs when c
// produced a value.
func Then[T, U any](c Coercer[T], transform func(T) U) Coercer[U] {
	return func(v Value) (U, bool) {
		t, ok := c(v)
		if !ok {
			var zero U
			return zero, false
		}
		return transform(t), true
	}
}

// String accepts a single text value, trimming surrounding white space when
// trim is set. Lists are rejected rather than joined.
func String(trim bool) Coercer[string] {
	return func(v Value) (string, bool) {
		s, ok := v.Text()
		if !ok {
			return "", false
		}
		if trim {
			s = strings.TrimSpace(s)
		}
		return s, true
	}
}

// Number parses decimal text (surrounding white space allowed) into a
// float64. Empty text and NaN give no value.
func Number() Coercer[float64] {
	return func(v Value) (float64, bool) {
		s, ok := v.Text()
		if !ok {
			return 0, false
		}
		return parseNumber(s)
	}
}

// Integer accepts text matching -?[0-9]+ whose magnitude is at most
// MaxSafeInteger.
func Integer() Coercer[int64] {
	return func(v Value) (int64, bool) {
		return parseBoundedInt(v, integerPattern)
	}
}

// Natural is Integer without the sign: "-2" gives no value.
func Natural() Coercer[int64] {
	return func(v Value) (int64, bool) {
		return parseBoundedInt(v, naturalPattern)
	}
}

// Boolean accepts exactly "true" or "false" after trimming. "1", "yes" and
// friends give no value.
func Boolean() Coercer[bool] {
	return func(v Value) (bool, bool) {
		s, ok := v.Text()
		if !ok {
			return false, false
		}
		switch strings.TrimSpace(s) {
		case "true":
			return true, true
		case "false":
			return false, true
		default:
			return false, false
		}
	}
}

// Enum returns the first candidate loosely equal to the trimmed text. The
// candidate itself is returned, so Enum(10, 20, 30) turns "10" into the
// int 10.
//
// Loose equality by candidate kind:
//   - string kinds: exact text match
//   - integer and float kinds: numeric match against the text parsed as Number
//   - bool: numeric match against 1 (true) or 0 (false)
//   - anything else: match against fmt.Sprint(candidate)
func Enum[T any](candidates ...T) Coercer[T] {
	candidates = slices.Clone(candidates)
	return func(v Value) (T, bool) {
		var zero T
		s, ok := v.Text()
		if !ok {
			return zero, false
		}
		s = strings.TrimSpace(s)
		for _, candidate := range candidates {
			if looseEqual(candidate, s) {
				return candidate, true
			}
		}
		return zero, false
	}
}

// RegExp returns the untrimmed text unchanged when it matches pattern.
func RegExp(pattern *regexp.Regexp) Coercer[string] {
	if pattern == nil {
		panic("qparse: RegExp requires a non-nil pattern")
	}
	return func(v Value) (string, bool) {
		s, ok := v.Text()
		if !ok || !pattern.MatchString(s) {
			return "", false
		}
		return s, true
	}
}

// Array accepts a list, or text split on ListSeparator, and coerces every
// element with elem. Elements that give no value are dropped.
//
// A nil elem keeps the raw text elements; T must then be string.
func Array[T any](elem Coercer[T]) Coercer[[]T] {
	if elem == nil {
		elem = rawText[T]
	}
	return func(v Value) ([]T, bool) {
		var items []Value
		switch v.Kind() {
		case KindList:
			items = v.list
		case KindText:
			items = Strings(strings.Split(v.text, ListSeparator)...).list
		default:
			return nil, false
		}

		out := make([]T, 0, len(items))
		for _, item := range items {
			if t, ok := elem(item); ok {
				out = append(out, t)
			}
		}
		return out, true
	}
}

// UUID parses text in any of the forms uuid.Parse accepts.
func UUID() Coercer[uuid.UUID] {
	return func(v Value) (uuid.UUID, bool) {
		s, ok := v.Text()
		if !ok {
			return uuid.Nil, false
		}
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	}
}

///////////////////////////////////////////////////////////////////////////////
// Helpers
///////////////////////////////////////////////////////////////////////////////

func rawText[T any](v Value) (T, bool) {
	var zero T
	s, ok := v.Text()
	if !ok {
		return zero, false
	}
	t, ok := any(s).(T)
	return t, ok
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseBoundedInt(v Value, pattern *regexp.Regexp) (int64, bool) {
	s, ok := v.Text()
	if !ok || !pattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if n > MaxSafeInteger || n < -MaxSafeInteger {
		return 0, false
	}
	return n, true
}

func looseEqual(candidate any, text string) bool {
	rv := reflect.ValueOf(candidate)
	switch rv.Kind() {
	case reflect.Invalid:
		return false
	case reflect.String:
		return rv.String() == text
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := parseNumber(text)
		return ok && n == float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := parseNumber(text)
		return ok && n == float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		n, ok := parseNumber(text)
		return ok && n == rv.Float()
	case reflect.Bool:
		n, ok := parseNumber(text)
		want := 0.0
		if rv.Bool() {
			want = 1
		}
		return ok && n == want
	default:
		return fmt.Sprint(candidate) == text
	}
}

package qparse

import (
	"fmt"
	"math"
	"reflect"
)

// setFieldValue stores a walk output value in field, converting between
// compatible kinds.
//
// Currently supports:
//   - nil (sets the zero value)
//   - any value assignable to the field type
//   - integer, unsigned and float values to any numeric kind (with
//     overflow and truncation checking)
//   - string values to named string kinds, bool values to named bool kinds
//   - slices and arrays to slices, element by element
//   - all of the above through pointer fields (allocated on demand)
func setFieldValue(field reflect.Value, value any) error {
	// Handle nil values
	if value == nil {
		field.SetZero()
		return nil
	}

	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := setFieldValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setIntValue(field, rv)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return setUintValue(field, rv)
	case reflect.Float32, reflect.Float64:
		return setFloatValue(field, rv)
	case reflect.String:
		if rv.Kind() == reflect.String {
			field.SetString(rv.String())
			return nil
		}
	case reflect.Bool:
		if rv.Kind() == reflect.Bool {
			field.SetBool(rv.Bool())
			return nil
		}
	case reflect.Slice:
		return setSliceValue(field, rv)
	}

	return fmt.Errorf("%w: cannot set %s from %T", ErrUnsupportedFieldType, field.Type(), value)
}

// setIntValue sets integer field values with overflow checking
func setIntValue(field reflect.Value, rv reflect.Value) error {
	var n int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return fmt.Errorf("value %d overflows %s", u, field.Type())
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return fmt.Errorf("value %v is not representable as %s", f, field.Type())
		}
		n = int64(f)
	default:
		return fmt.Errorf("%w: cannot set %s from %s", ErrUnsupportedFieldType, field.Type(), rv.Type())
	}

	if field.OverflowInt(n) {
		return fmt.Errorf("value %d overflows %s", n, field.Type())
	}
	field.SetInt(n)
	return nil
}

// setUintValue sets unsigned integer field values with overflow checking
func setUintValue(field reflect.Value, rv reflect.Value) error {
	var u uint64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < 0 {
			return fmt.Errorf("value %d is negative for %s", n, field.Type())
		}
		u = uint64(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u = rv.Uint()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < 0 || f > math.MaxUint64 {
			return fmt.Errorf("value %v is not representable as %s", f, field.Type())
		}
		u = uint64(f)
	default:
		return fmt.Errorf("%w: cannot set %s from %s", ErrUnsupportedFieldType, field.Type(), rv.Type())
	}

	if field.OverflowUint(u) {
		return fmt.Errorf("value %d overflows %s", u, field.Type())
	}
	field.SetUint(u)
	return nil
}

// setFloatValue sets float field values with overflow checking
func setFloatValue(field reflect.Value, rv reflect.Value) error {
	var f float64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f = float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	default:
		return fmt.Errorf("%w: cannot set %s from %s", ErrUnsupportedFieldType, field.Type(), rv.Type())
	}

	if field.OverflowFloat(f) {
		return fmt.Errorf("value %v overflows %s", f, field.Type())
	}
	field.SetFloat(f)
	return nil
}

// setSliceValue sets slice field values element by element
func setSliceValue(field reflect.Value, rv reflect.Value) error {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("%w: cannot set %s from %s", ErrUnsupportedFieldType, field.Type(), rv.Type())
	}

	out := reflect.MakeSlice(field.Type(), rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if err := setFieldValue(out.Index(i), valueOrNil(rv.Index(i))); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	field.Set(out)
	return nil
}

package qparse

import (
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoercerRegistry_Builtins(t *testing.T) {
	tests := []struct {
		expr   string
		input  Value
		want   any
		wantOK bool
	}{
		{"string", Text(" a "), " a ", true},
		{"string:trim", Text(" a "), "a", true},
		{"number", Text("1.5"), 1.5, true},
		{"integer", Text("-2"), int64(-2), true},
		{"natural", Text("-2"), nil, false},
		{"boolean", Text("false"), false, true},
		{"boolean", Text("1"), nil, false},
		{"enum:'10,20,30'", Text("10"), int64(10), true},
		{"enum:'0.5,1.5'", Text("1.50"), 1.5, true},
		{"enum:'GUEST,USER'", Text("USER"), "USER", true},
		{"regexp:'<.*>'", Text("<abc>"), "<abc>", true},
		{"regexp:'<.*>'", Text("abc"), nil, false},
		{"array", Text("a,b"), []string{"a", "b"}, true},
		{"array:natural", Text("1,2,3"), []any{int64(1), int64(2), int64(3)}, true},
		{"array:'enum:'1,2''", Strings("2", "3", "1"), []any{int64(2), int64(1)}, true},
		{"datePattern", Text("2020/01/11 11:11:11"), "2020-01-11", true},
		{"datetimePattern:startOfDay", Text("2020/01/11 11:11:11"), "2020-01-11 00:00:00", true},
		{"datetimePattern:'startOfDay, endOfDay'", Text("2020/01/11 11:11:11"), "2020-01-11 23:59:59", true},
		{"uuid", Text("00000000-0000-0000-0000-000000000000"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr+"/"+tt.input.String(), func(t *testing.T) {
			leaf, err := CompileExpr(tt.expr)
			require.NoError(t, err)
			require.Equal(t, NodeLeaf, leaf.Kind())

			got, ok := leaf.Coerce(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCoercerRegistry_CompileErrors(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr error
	}{
		{"nope", ErrUnknownCoercer},
		{"natural:5", ErrInvalidCoercerExpr},
		{"string:upper", ErrInvalidCoercerExpr},
		{"enum", ErrInvalidCoercerExpr},
		{"enum:' , '", ErrInvalidCoercerExpr},
		{"regexp", ErrInvalidCoercerExpr},
		{"regexp:'('", ErrInvalidCoercerExpr},
		{"array:nope", ErrUnknownCoercer},
		{"date:noon", ErrInvalidCoercerExpr},
		{"9", ErrInvalidCoercerExpr},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := CompileExpr(tt.expr)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCoercerRegistry_Register(t *testing.T) {
	upper := func(arg string, _ *CoercerRegistry) (Node, error) {
		return Leaf(Then(String(true), strings.ToUpper)), nil
	}

	t.Run("CustomFactory", func(t *testing.T) {
		reg, err := NewCoercerRegistry(CoercerRegistryOpts{
			Factories: map[string]Factory{"upper": upper},
		})
		require.NoError(t, err)

		leaf, err := reg.Compile("array:upper")
		require.NoError(t, err)
		got, ok := leaf.Coerce(Text("a,b"))
		assert.True(t, ok)
		assert.Equal(t, []any{"A", "B"}, got)
	})

	t.Run("ExcludeDefaults", func(t *testing.T) {
		reg, err := NewCoercerRegistry(CoercerRegistryOpts{
			Factories:       map[string]Factory{"upper": upper},
			ExcludeDefaults: true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"upper"}, reg.Names())

		_, err = reg.Compile("natural")
		assert.ErrorIs(t, err, ErrUnknownCoercer)
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := NewCoercerRegistry(CoercerRegistryOpts{
			Factories: map[string]Factory{"natural": upper},
		})
		assert.ErrorIs(t, err, ErrCoercerAlreadyRegistered)
	})

	t.Run("InvalidRegistrations", func(t *testing.T) {
		reg, err := NewCoercerRegistry(CoercerRegistryOpts{ExcludeDefaults: true})
		require.NoError(t, err)

		assert.ErrorIs(t, reg.Register("bad name", upper), ErrInvalidCoercerExpr)
		assert.ErrorIs(t, reg.Register("nilFactory", nil), ErrInvalidCoercerExpr)
	})

	t.Run("FactoryMustReturnLeaf", func(t *testing.T) {
		reg, err := NewCoercerRegistry(CoercerRegistryOpts{
			ExcludeDefaults: true,
			Factories: map[string]Factory{
				"branch": func(string, *CoercerRegistry) (Node, error) { return Fields(nil), nil },
			},
		})
		require.NoError(t, err)

		_, err = reg.Compile("branch")
		assert.ErrorIs(t, err, ErrInvalidCoercerExpr)
	})

	t.Run("CompiledExpressionsAreCached", func(t *testing.T) {
		var calls atomic.Int32
		reg, err := NewCoercerRegistry(CoercerRegistryOpts{
			ExcludeDefaults: true,
			Factories: map[string]Factory{
				"counted": func(string, *CoercerRegistry) (Node, error) {
					calls.Add(1)
					return Leaf(Number()), nil
				},
			},
		})
		require.NoError(t, err)

		for _, expr := range []string{"counted", " counted ", "counted"} {
			_, err := reg.Compile(expr)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestCoercerRegistry_Unregister(t *testing.T) {
	reg, err := NewCoercerRegistry(CoercerRegistryOpts{})
	require.NoError(t, err)

	_, err = reg.Compile("array:natural")
	require.NoError(t, err)

	assert.True(t, reg.Unregister(NaturalCoercerName))
	assert.False(t, reg.Unregister(NaturalCoercerName))
	assert.NotContains(t, reg.Names(), NaturalCoercerName)

	// Compiled expressions referring to the removed name are dropped too
	_, err = reg.Compile("array:natural")
	assert.ErrorIs(t, err, ErrUnknownCoercer)

	require.NoError(t, reg.Register(NaturalCoercerName, noArg(Leaf(Integer()))))
	leaf, err := reg.Compile("natural")
	require.NoError(t, err)
	got, ok := leaf.Coerce(Text("-2"))
	assert.True(t, ok)
	assert.Equal(t, int64(-2), got)
}

func TestCoercerNames(t *testing.T) {
	names := CoercerNames()
	for _, name := range []string{
		StringCoercerName, NumberCoercerName, IntegerCoercerName, NaturalCoercerName,
		BooleanCoercerName, EnumCoercerName, RegExpCoercerName, ArrayCoercerName,
		UUIDCoercerName, DateCoercerName, DatePatternCoercerName, DatetimePatternCoercerName,
	} {
		assert.Contains(t, names, name)
	}
	assert.IsIncreasing(t, names)
}

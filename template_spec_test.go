package qparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSpecYAML = `
template:
  id: natural
  name: string:trim
  role: enum:'GUEST,USER,ADMIN'
  tags: array:natural
  range:
    - datetimePattern:startOfDay
    - datetimePattern:endOfDay
  paging: &paging
    page: natural
    size: natural
defaults:
  role: GUEST
  tags: [1, "2", x]
  range:
    - 2020/01/11 11:11:11
  paging:
    size: "20"
`

func TestLoadTemplateSpec(t *testing.T) {
	spec, err := LoadTemplateSpec([]byte(userSpecYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "paging", "range", "role", "tags"}, spec.Template.Keys())

	wantDefaults := map[string]any{
		"role":   "GUEST",
		"tags":   []any{int64(1), int64(2)},
		"range":  []any{"2020-01-11 00:00:00", nil},
		"paging": map[string]any{"size": int64(20)},
	}
	if diff := cmp.Diff(wantDefaults, spec.Defaults); diff != "" {
		t.Errorf("Defaults mismatch (-want +got):\n%s", diff)
	}

	t.Run("Walk", func(t *testing.T) {
		input := Map(map[string]Value{
			"id":     Text("12"),
			"paging": Map(map[string]Value{"page": Text("3")}),
		})

		got, err := spec.Walk(input)
		require.NoError(t, err)

		want := map[string]any{
			"id":     int64(12),
			"name":   nil,
			"role":   "GUEST",
			"tags":   []any{int64(1), int64(2)},
			"range":  []any{"2020-01-11 00:00:00", nil},
			"paging": map[string]any{"page": int64(3), "size": int64(20)},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("SequenceRoot", func(t *testing.T) {
		spec, err := LoadTemplateSpec([]byte("template: [natural, boolean]\ndefaults: [~, 'true']\n"), nil)
		require.NoError(t, err)

		got, err := spec.Walk(Strings("5"))
		require.NoError(t, err)
		assert.Equal(t, []any{int64(5), true}, got)
	})

	t.Run("AliasedBranch", func(t *testing.T) {
		spec, err := LoadTemplateSpec([]byte("template:\n  a: &leaf natural\n  b: *leaf\n"), nil)
		require.NoError(t, err)

		got, err := spec.Walk(Map(map[string]Value{"b": Text("2")}))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": nil, "b": int64(2)}, got)
	})
}

func TestLoadTemplateSpec_CustomRegistry(t *testing.T) {
	reg, err := NewCoercerRegistry(CoercerRegistryOpts{
		ExcludeDefaults: true,
		Factories: map[string]Factory{
			"flag": func(string, *CoercerRegistry) (Node, error) { return Leaf(Boolean()), nil },
		},
	})
	require.NoError(t, err)

	_, err = LoadTemplateSpec([]byte("template:\n  a: natural\n"), reg)
	assert.ErrorIs(t, err, ErrUnknownCoercer)
	assert.ErrorIs(t, err, ErrInvalidTemplateSpec)

	spec, err := LoadTemplateSpec([]byte("template:\n  a: flag\n"), reg)
	require.NoError(t, err)
	got, err := spec.Walk(Map(map[string]Value{"a": Text("true")}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": true}, got)
}

func TestLoadTemplateSpec_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{"NotYAML", "template: [", ""},
		{"MissingTemplate", "defaults:\n  a: 1\n", "missing top-level template"},
		{"BadExpression", "template:\n  a: enum:'x\n", "a (line 2)"},
		{"DuplicateKey", "template:\n  a: natural\n  a: number\n", `"a"`},
		{"DefaultWithoutField", "template:\n  a: natural\ndefaults:\n  b: 1\n", `default "b" has no template field`},
		{"DefaultShape", "template:\n  a:\n    b: natural\ndefaults:\n  a: 1\n", "defaults must be a mapping"},
		{"DefaultSeqShape", "template:\n  a: [natural]\ndefaults:\n  a: 1\n", "defaults must be a sequence"},
		{"TooManySeqDefaults", "template: [natural]\ndefaults: [1, 2]\n", "2 defaults for 1 template positions"},
		{"UncoercibleDefault", "template:\n  a: natural\ndefaults:\n  a: -1\n", "cannot be coerced"},
		{"MappingDefaultForLeaf", "template:\n  a: natural\ndefaults:\n  a: {b: 1}\n", "scalar or a list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTemplateSpec([]byte(tt.yaml), nil)
			require.ErrorIs(t, err, ErrInvalidTemplateSpec)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadTemplateSpecFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(userSpecYAML), 0o644))

	spec, err := LoadTemplateSpecFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, NodeFields, spec.Template.Kind())

	_, err = LoadTemplateSpecFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `
template:
  id: natural
  name: string:trim
  role: enum:'GUEST,USER,ADMIN'
  tags: array
defaults:
  role: GUEST
`

func writeSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSpec), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (map[string]any, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	var result map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &result), out.String())
	return result, nil
}

func TestParseCommand(t *testing.T) {
	spec := writeSpec(t)

	t.Run("QueryString", func(t *testing.T) {
		result, err := execute(t, "", "parse", "--template", spec, "id=3&name=+bob+&tags=a,b")
		require.NoError(t, err)

		assert.Equal(t, float64(3), result["id"])
		assert.Equal(t, "bob", result["name"])
		assert.Equal(t, "GUEST", result["role"])
		assert.Equal(t, []any{"a", "b"}, result["tags"])
	})

	t.Run("JSONWithPath", func(t *testing.T) {
		doc := `{"payload":{"id":"7","role":"ADMIN","tags":["x"]}}`
		result, err := execute(t, "", "parse", "-t", spec, "--json", "--path", "payload", doc)
		require.NoError(t, err)

		assert.Equal(t, float64(7), result["id"])
		assert.Equal(t, "ADMIN", result["role"])
		assert.Nil(t, result["name"])
		assert.Equal(t, []any{"x"}, result["tags"])
	})

	t.Run("Stdin", func(t *testing.T) {
		result, err := execute(t, "role=USER\n", "parse", "-t", spec, "-")
		require.NoError(t, err)
		assert.Equal(t, "USER", result["role"])
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		_, err := execute(t, "", "parse", "-t", spec, "--json", `"just text"`)
		assert.Error(t, err)
	})

	t.Run("MissingTemplateFlag", func(t *testing.T) {
		_, err := execute(t, "", "parse", "id=1")
		assert.Error(t, err)
	})

	t.Run("PathWithoutJSON", func(t *testing.T) {
		_, err := execute(t, "", "parse", "-t", spec, "--path", "a", "id=1")
		assert.Error(t, err)
	})
}

func TestCoercersCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"coercers"})

	require.NoError(t, cmd.Execute())
	names := strings.Fields(out.String())
	assert.Contains(t, names, "natural")
	assert.Contains(t, names, "datetimePattern")
}

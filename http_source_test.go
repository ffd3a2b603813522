package qparse

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users?id=3&tag=a&tag=b", nil)

	v := FromRequest(req)
	assert.Equal(t, Text("3"), v.Get("id"))
	assert.Equal(t, Strings("a", "b"), v.Get("tag"))

	assert.Equal(t, Absent(), FromRequest(nil))
}

func TestFromRequestBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        Value
		wantErr     error
	}{
		{
			name:        "JSON",
			body:        `{"id": 3}`,
			contentType: "application/json",
			want:        Map(map[string]Value{"id": Text("3")}),
		},
		{
			name:        "JSONWithCharset",
			body:        `["a"]`,
			contentType: "application/json; charset=utf-8",
			want:        Strings("a"),
		},
		{
			name: "NoContentType",
			body: `"x"`,
			want: Text("x"),
		},
		{
			name:        "EmptyBody",
			contentType: "application/json",
			want:        Absent(),
		},
		{
			name:        "WrongContentType",
			body:        "id=3",
			contentType: "application/x-www-form-urlencoded",
			wantErr:     ErrUnsupportedInput,
		},
		{
			name:        "InvalidJSON",
			body:        `{"id":`,
			contentType: "application/json",
			wantErr:     ErrInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			got, err := FromRequestBody(req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("UnknownContentLength", func(t *testing.T) {
		body := io.MultiReader(strings.NewReader(`{"id": `), strings.NewReader(`3}`))
		req, err := http.NewRequest(http.MethodPost, "http://example.com/", body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		require.Zero(t, req.ContentLength)

		got, err := FromRequestBody(req)
		require.NoError(t, err)
		assert.Equal(t, Map(map[string]Value{"id": Text("3")}), got)
	})

	t.Run("NoBody", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
		require.NoError(t, err)

		got, err := FromRequestBody(req)
		require.NoError(t, err)
		assert.Equal(t, Absent(), got)
	})

	t.Run("NilRequest", func(t *testing.T) {
		got, err := FromRequestBody(nil)
		require.NoError(t, err)
		assert.Equal(t, Absent(), got)
	})
}

package qparse

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// FromRequest converts the query parameters of r into a map Value (see
// FromValues). Nested keys are not expanded: "a[b]=1" stays the key "a[b]".
func FromRequest(r *http.Request) Value {
	if r == nil || r.URL == nil {
		return Absent()
	}
	return FromValues(r.URL.Query())
}

// FromRequestBody converts a JSON request body into a Value (see FromJSON).
// A declared content type must be application/json; a request without one
// is read as JSON. An empty or missing body gives Absent.
func FromRequestBody(r *http.Request) (Value, error) {
	if r == nil {
		return Absent(), nil
	}

	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			mediaType = strings.TrimSpace(strings.Split(contentType, ContentTypeDelimiter)[0])
		}
		if mediaType != ContentTypeApplicationJSON {
			return Value{}, fmt.Errorf("%w: content type %s", ErrUnsupportedInput, mediaType)
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return Absent(), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return Value{}, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return Absent(), nil
	}
	return FromJSON(body)
}

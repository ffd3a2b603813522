// Package qparse (Query PARSE) coerces untyped query data into typed values
// according to a declarative template.
//
// Decoded query data arrives as a tree of text, lists of text and nested
// maps (see [Value]). A template (see [Node]) mirrors the shape you want
// back: every leaf holds a [Coercer] that turns one raw value into a typed
// value, and every branch is either a set of named fields or an ordered
// sequence of positions. The walker follows the template, never the input,
// so the output always has exactly the template's shape.
//
// Coercion never reports per-field errors. A value that is absent or cannot
// be coerced simply resolves to "no value" (nil in the output), or to the
// matching entry of an optional defaults tree. The only errors returned are
// structural ones: the input has a shape the template cannot consume, for
// example a text value where the template expects nested fields.
//
// The package provides built-in coercers for:
//   - text (optionally trimmed), numbers, integers and natural numbers
//   - strict booleans ("true"/"false" only)
//   - enumerations with loose matching ("10" matches the candidate 10)
//   - regular expressions, UUIDs
//   - comma-separated or repeated lists
//   - dates, optionally snapped to day boundaries and rendered as text
//
// Templates can be written in Go:
//
//	tmpl := qparse.Fields(map[string]qparse.Node{
//	    "id":   qparse.Leaf(qparse.Natural()),
//	    "role": qparse.Leaf(qparse.Enum("GUEST", "USER", "ADMIN")),
//	    "range": qparse.Seq(
//	        qparse.Leaf(qparse.DatetimePattern(qparse.StartOfDay)),
//	        qparse.Leaf(qparse.DatetimePattern(qparse.EndOfDay)),
//	    ),
//	})
//	out, err := qparse.Walk(qparse.FromRequest(r), tmpl, map[string]any{"role": "GUEST"})
//
// loaded from a YAML file with [LoadTemplateSpec], or derived from struct
// tags with [Bind]:
//
//	type Search struct {
//	    Page int    `query:"page" coerce:"natural" default:"1"`
//	    Role string `query:"role" coerce:"enum:'GUEST,USER'"`
//	}
//
// Coercers and templates are immutable once built and safe for concurrent
// use; a walk holds no state beyond its own call stack.
package qparse

package qparse

import (
	"fmt"
	"reflect"
	"strconv"

	"go.uber.org/zap"
)

// Walker walks input data along a template. It holds no per-walk state,
// so one Walker can serve any number of concurrent walks.
type Walker struct {
	logger *zap.Logger
}

type WalkerOpts struct {
	// Logger receives debug events (default substitution, shape
	// mismatches). Nil disables logging.
	Logger *zap.Logger
}

func NewWalker(opts WalkerOpts) *Walker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{logger: logger}
}

// Walk coerces input according to tmpl and returns a tree shaped exactly
// like tmpl:
//   - a Fields node yields map[string]any holding every template key
//   - a Seq node yields []any with one slot per template position
//   - a Leaf node yields the coerced value, the default found at the same
//     path in defaults, or nil
//
// Extra input keys are ignored and missing ones resolve like absent values.
// A branch reached with absent or null input walks its children with absent
// input. A leaf treats null and empty maps as absent. The only errors are
// structural: a branch reached with text, or a leaf reached with a
// non-empty map (directly or as a list element), gives a *ShapeError; a
// zero Node gives ErrInvalidTemplate.
func (w *Walker) Walk(input Value, tmpl Node, defaults any) (any, error) {
	return w.walk("", input, tmpl, defaults)
}

func (w *Walker) walk(path string, input Value, node Node, defaults any) (any, error) {
	switch node.kind {
	case NodeLeaf:
		return w.walkLeaf(path, input, node, defaults)
	case NodeFields:
		return w.walkFields(path, input, node, defaults)
	case NodeSeq:
		return w.walkSeq(path, input, node, defaults)
	default:
		return nil, fmt.Errorf("%w at %s", ErrInvalidTemplate, displayPath(path))
	}
}

func (w *Walker) walkLeaf(path string, input Value, node Node, defaults any) (any, error) {
	switch input.Kind() {
	case KindMap:
		// An empty object is the null marker, not a nested mapping
		if len(input.fields) > 0 {
			return nil, w.mismatch(path, NodeLeaf, KindMap)
		}
		input = Absent()
	case KindNull:
		input = Absent()
	case KindList:
		for i, item := range input.list {
			if item.Kind() == KindMap && len(item.fields) > 0 {
				return nil, w.mismatch(joinIndex(path, i), NodeLeaf, KindMap)
			}
		}
	}

	if result, ok := node.leaf(input); ok {
		return result, nil
	}

	if defaults != nil {
		w.logger.Debug("qparse: default substituted", zap.String("path", displayPath(path)))
		return defaults, nil
	}
	return nil, nil
}

func (w *Walker) walkFields(path string, input Value, node Node, defaults any) (any, error) {
	if input.Kind() == KindText {
		return nil, w.mismatch(path, NodeFields, input.Kind())
	}

	out := make(map[string]any, len(node.keys))
	for _, key := range node.keys {
		result, err := w.walk(
			joinKey(path, key),
			input.Get(key),
			node.fields[key],
			defaultForKey(defaults, key),
		)
		if err != nil {
			return nil, err
		}
		out[key] = result
	}
	return out, nil
}

func (w *Walker) walkSeq(path string, input Value, node Node, defaults any) (any, error) {
	if input.Kind() == KindText {
		return nil, w.mismatch(path, NodeSeq, input.Kind())
	}

	out := make([]any, len(node.seq))
	for i, child := range node.seq {
		result, err := w.walk(
			joinIndex(path, i),
			input.Index(i),
			child,
			defaultForIndex(defaults, i),
		)
		if err != nil {
			return nil, err
		}
		out[i] = result
	}
	return out, nil
}

func (w *Walker) mismatch(path string, tmpl NodeKind, input Kind) error {
	w.logger.Debug(
		"qparse: shape mismatch",
		zap.String("path", displayPath(path)),
		zap.Stringer("template", tmpl),
		zap.Stringer("input", input),
	)
	return &ShapeError{Path: path, Template: tmpl, Input: input}
}

///////////////////////////////////////////////////////////////////////////////
// Defaults lookup
///////////////////////////////////////////////////////////////////////////////

// defaultForKey returns the defaults sub-tree stored under key, or nil.
// Maps with string keys are read by key, slices by decimal index.
func defaultForKey(defaults any, key string) any {
	switch d := defaults.(type) {
	case nil:
		return nil
	case map[string]any:
		return d[key]
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(d) {
			return nil
		}
		return d[i]
	}

	rv := reflect.ValueOf(defaults)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		return valueOrNil(rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())))
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil
		}
		return valueOrNil(rv.Index(i))
	default:
		return nil
	}
}

// defaultForIndex returns the defaults sub-tree at position i, or nil.
func defaultForIndex(defaults any, i int) any {
	if d, ok := defaults.([]any); ok {
		if i < 0 || i >= len(d) {
			return nil
		}
		return d[i]
	}
	return defaultForKey(defaults, strconv.Itoa(i))
}

func valueOrNil(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

///////////////////////////////////////////////////////////////////////////////
// Paths
///////////////////////////////////////////////////////////////////////////////

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func joinIndex(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

///////////////////////////////////////////////////////////////////////////////
// Global Singleton and Package Functions
///////////////////////////////////////////////////////////////////////////////

var _gWalker = NewWalker(WalkerOpts{})

// Walk walks input along tmpl with a walker that does not log.
func Walk(input Value, tmpl Node, defaults any) (any, error) {
	return _gWalker.Walk(input, tmpl, defaults)
}

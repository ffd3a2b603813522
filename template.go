package qparse

import (
	"sort"
	"strconv"
)

// NodeKind identifies the variant of a template Node.
type NodeKind uint8

const (
	NodeInvalid NodeKind = iota // zero Node
	NodeLeaf                    // a single coercer
	NodeFields                  // named fields
	NodeSeq                     // ordered positions
)

func (k NodeKind) String() string {
	switch k {
	case NodeInvalid:
		return "invalid"
	case NodeLeaf:
		return "leaf"
	case NodeFields:
		return "fields"
	case NodeSeq:
		return "sequence"
	default:
		return "NodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// leafFunc is a type-erased Coercer.
type leafFunc func(Value) (any, bool)

// Node is one node of a template: a leaf coercer, a set of named fields or
// an ordered sequence. Its shape is the shape of the walk output.
//
// Nodes are built once and never change, so they can be shared freely.
type Node struct {
	kind   NodeKind
	leaf   leafFunc
	fields map[string]Node
	keys   []string // sorted keys of fields, for a stable walk order
	seq    []Node
}

// Leaf wraps a Coercer as a template leaf.
func Leaf[T any](c Coercer[T]) Node {
	if c == nil {
		panic("qparse: Leaf requires a non-nil coercer")
	}
	return Node{
		kind: NodeLeaf,
		leaf: func(v Value) (any, bool) {
			return c(v)
		},
	}
}

// Fields builds a branch producing a map with exactly the given keys.
func Fields(fields map[string]Node) Node {
	copied := make(map[string]Node, len(fields))
	keys := make([]string, 0, len(fields))
	for key, node := range fields {
		copied[key] = node
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return Node{
		kind:   NodeFields,
		fields: copied,
		keys:   keys,
	}
}

// Seq builds a branch producing a slice with one slot per node.
func Seq(nodes ...Node) Node {
	seq := make([]Node, len(nodes))
	copy(seq, nodes)
	return Node{
		kind: NodeSeq,
		seq:  seq,
	}
}

func (n Node) Kind() NodeKind {
	return n.kind
}

// Keys returns the field names of a Fields node in sorted order.
func (n Node) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Field returns the child node stored under key.
func (n Node) Field(key string) (Node, bool) {
	child, ok := n.fields[key]
	return child, ok
}

// Len returns the number of positions of a Seq node.
func (n Node) Len() int {
	return len(n.seq)
}

// At returns the child node at position i of a Seq node.
func (n Node) At(i int) (Node, bool) {
	if i < 0 || i >= len(n.seq) {
		return Node{}, false
	}
	return n.seq[i], true
}

// Coerce runs a leaf node's coercer on v. Non-leaf nodes give no value.
func (n Node) Coerce(v Value) (any, bool) {
	if n.kind != NodeLeaf {
		return nil, false
	}
	return n.leaf(v)
}

// asCoercer exposes a leaf's coercer in its type-erased form.
func (n Node) asCoercer() Coercer[any] {
	return Coercer[any](n.leaf)
}

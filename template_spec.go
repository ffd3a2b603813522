package qparse

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TemplateSpec is a template together with its defaults tree, usually
// loaded from a YAML file of the form:
//
//	template:
//	  id: natural
//	  name: string:trim
//	  role: enum:'GUEST,USER,ADMIN'
//	  range:
//	    - datetimePattern:startOfDay
//	    - datetimePattern:endOfDay
//	defaults:
//	  role: GUEST
//
// Mappings become Fields nodes, sequences Seq nodes and scalars coercer
// expressions compiled by a CoercerRegistry. Default scalars are coerced by
// the leaf they belong to, so Defaults holds typed values.
type TemplateSpec struct {
	Template Node
	Defaults any
}

type templateSpecFile struct {
	Template yaml.Node `yaml:"template"`
	Defaults yaml.Node `yaml:"defaults"`
}

// LoadTemplateSpec decodes a YAML template spec. A nil reg uses the global
// registry.
func LoadTemplateSpec(data []byte, reg *CoercerRegistry) (*TemplateSpec, error) {
	if reg == nil {
		reg = _gCoercerRegistry
	}

	var file templateSpecFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplateSpec, err)
	}
	if file.Template.Kind == 0 {
		return nil, fmt.Errorf("%w: missing top-level template", ErrInvalidTemplateSpec)
	}

	tmpl, err := buildSpecNode(&file.Template, "", reg)
	if err != nil {
		return nil, err
	}

	defaults, err := buildSpecDefaults(&file.Defaults, tmpl, "")
	if err != nil {
		return nil, err
	}

	return &TemplateSpec{Template: tmpl, Defaults: defaults}, nil
}

// LoadTemplateSpecFile reads and decodes the YAML template spec at path.
func LoadTemplateSpecFile(path string, reg *CoercerRegistry) (*TemplateSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template spec: %w", err)
	}
	return LoadTemplateSpec(data, reg)
}

// Walk walks input with the spec's template and defaults.
func (ts *TemplateSpec) Walk(input Value) (any, error) {
	return ts.WalkWith(_gWalker, input)
}

// WalkWith is Walk on a specific Walker.
func (ts *TemplateSpec) WalkWith(w *Walker, input Value) (any, error) {
	return w.Walk(input, ts.Template, ts.Defaults)
}

func buildSpecNode(node *yaml.Node, path string, reg *CoercerRegistry) (Node, error) {
	node = resolveAlias(node)

	switch node.Kind {
	case yaml.MappingNode:
		fields := make(map[string]Node, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if _, dup := fields[key]; dup {
				return Node{}, specError(path, node.Content[i], "duplicate key %q", key)
			}
			child, err := buildSpecNode(node.Content[i+1], joinKey(path, key), reg)
			if err != nil {
				return Node{}, err
			}
			fields[key] = child
		}
		return Fields(fields), nil

	case yaml.SequenceNode:
		seq := make([]Node, len(node.Content))
		for i, item := range node.Content {
			child, err := buildSpecNode(item, joinIndex(path, i), reg)
			if err != nil {
				return Node{}, err
			}
			seq[i] = child
		}
		return Seq(seq...), nil

	case yaml.ScalarNode:
		leaf, err := reg.Compile(node.Value)
		if err != nil {
			return Node{}, fmt.Errorf(
				"%w: %s (line %d): %w",
				ErrInvalidTemplateSpec, displayPath(path), node.Line, err,
			)
		}
		return leaf, nil

	default:
		return Node{}, specError(path, node, "unsupported YAML node")
	}
}

func buildSpecDefaults(node *yaml.Node, tmpl Node, path string) (any, error) {
	if node == nil || node.Kind == 0 {
		return nil, nil
	}
	node = resolveAlias(node)
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}

	switch tmpl.Kind() {
	case NodeLeaf:
		return coerceSpecDefault(node, tmpl, path)

	case NodeFields:
		if node.Kind != yaml.MappingNode {
			return nil, specError(path, node, "defaults must be a mapping here")
		}
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			child, ok := tmpl.Field(key)
			if !ok {
				return nil, specError(path, node.Content[i], "default %q has no template field", key)
			}
			value, err := buildSpecDefaults(node.Content[i+1], child, joinKey(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = value
		}
		return out, nil

	case NodeSeq:
		if node.Kind != yaml.SequenceNode {
			return nil, specError(path, node, "defaults must be a sequence here")
		}
		if len(node.Content) > tmpl.Len() {
			return nil, specError(path, node, "%d defaults for %d template positions", len(node.Content), tmpl.Len())
		}
		out := make([]any, tmpl.Len())
		for i, item := range node.Content {
			child, _ := tmpl.At(i)
			value, err := buildSpecDefaults(item, child, joinIndex(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil

	default:
		return nil, specError(path, node, "template node is %s", tmpl.Kind())
	}
}

// coerceSpecDefault runs a default through its leaf. Scalars are coerced as
// text, sequences of scalars as a list.
func coerceSpecDefault(node *yaml.Node, leaf Node, path string) (any, error) {
	var raw Value
	switch node.Kind {
	case yaml.ScalarNode:
		raw = Text(node.Value)
	case yaml.SequenceNode:
		items := make([]string, len(node.Content))
		for i, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.ScalarNode {
				return nil, specError(path, item, "list defaults must hold scalars")
			}
			items[i] = item.Value
		}
		raw = Strings(items...)
	default:
		return nil, specError(path, node, "defaults for a leaf must be a scalar or a list")
	}

	value, ok := leaf.Coerce(raw)
	if !ok {
		return nil, specError(path, node, "default %s cannot be coerced", raw)
	}
	return value, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func specError(path string, node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf(
		"%w: %s (line %d): %s",
		ErrInvalidTemplateSpec, displayPath(path), node.Line, fmt.Sprintf(format, args...),
	)
}

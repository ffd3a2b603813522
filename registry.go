package qparse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Factory builds a template leaf from the argument of a coercer
// expression. reg is the registry compiling the expression, so factories
// can compile nested expressions (see the array factory).
type Factory func(arg string, reg *CoercerRegistry) (Node, error)

// CoercerRegistry maps coercer names to factories and compiles coercer
// expressions into template leaves.
//
// Compiled expressions are cached per registry, so compiling the same
// expression twice returns the same leaf without calling the factory again.
// The registry is safe for concurrent use.
type CoercerRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	compiled  lazyCache[string, Node]
}

type CoercerRegistryOpts struct {
	Factories       map[string]Factory
	ExcludeDefaults bool
}

var (
	_defaultFactories map[string]Factory = nil

	_dateReducers = map[string]DateReducer{
		StartOfDayReducerName: StartOfDay,
		EndOfDayReducerName:   EndOfDay,
	}
)

func NewCoercerRegistry(opts CoercerRegistryOpts) (*CoercerRegistry, error) {
	reg := &CoercerRegistry{
		factories: make(map[string]Factory),
	}

	if !opts.ExcludeDefaults {
		for name, factory := range _defaultFactories {
			if err := reg.Register(name, factory); err != nil {
				return nil, err
			}
		}
	}

	for name, factory := range opts.Factories {
		if err := reg.Register(name, factory); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Register adds a factory under name. Names follow the expression grammar
// and may only be registered once.
func (reg *CoercerRegistry) Register(name string, factory Factory) error {
	if !isExprName(name) {
		return fmt.Errorf("%w: bad coercer name %q", ErrInvalidCoercerExpr, name)
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidCoercerExpr, name)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrCoercerAlreadyRegistered, name)
	}
	reg.factories[name] = factory
	return nil
}

// Unregister removes the factory registered under name and drops every
// compiled expression, since nested expressions may refer to it. It
// reports whether name was registered.
func (reg *CoercerRegistry) Unregister(name string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.factories[name]; !exists {
		return false
	}
	delete(reg.factories, name)
	reg.compiled.Clear()
	return true
}

// Names returns the registered coercer names in sorted order.
func (reg *CoercerRegistry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.factories))
	for name := range reg.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile turns a coercer expression into a template leaf.
func (reg *CoercerRegistry) Compile(expr string) (Node, error) {
	return reg.compiled.GetOrCreate(strings.TrimSpace(expr), func() (Node, error) {
		parsed, err := ParseCoercerExpr(expr)
		if err != nil {
			return Node{}, err
		}

		reg.mu.RLock()
		factory, exists := reg.factories[parsed.Name]
		reg.mu.RUnlock()

		if !exists {
			return Node{}, fmt.Errorf("%w: %s", ErrUnknownCoercer, parsed.Name)
		}

		node, err := factory(parsed.Arg, reg)
		if err != nil {
			return Node{}, fmt.Errorf("coercer %s: %w", parsed.Name, err)
		}
		if node.Kind() != NodeLeaf {
			return Node{}, fmt.Errorf("%w: factory %s returned a %s node", ErrInvalidCoercerExpr, parsed.Name, node.Kind())
		}
		return node, nil
	})
}

///////////////////////////////////////////////////////////////////////////////
// Built-in factories
///////////////////////////////////////////////////////////////////////////////

func init() {
	_defaultFactories = map[string]Factory{
		StringCoercerName:          stringFactory,
		NumberCoercerName:          noArg(Leaf(Number())),
		IntegerCoercerName:         noArg(Leaf(Integer())),
		NaturalCoercerName:         noArg(Leaf(Natural())),
		BooleanCoercerName:         noArg(Leaf(Boolean())),
		UUIDCoercerName:            noArg(Leaf(UUID())),
		EnumCoercerName:            enumFactory,
		RegExpCoercerName:          regExpFactory,
		ArrayCoercerName:           arrayFactory,
		DateCoercerName:            dateFactory(func(rs []DateReducer) Node { return Leaf(Date(rs...)) }),
		DatePatternCoercerName:     dateFactory(func(rs []DateReducer) Node { return Leaf(DatePattern(rs...)) }),
		DatetimePatternCoercerName: dateFactory(func(rs []DateReducer) Node { return Leaf(DatetimePattern(rs...)) }),
	}

	var err error
	_gCoercerRegistry, err = NewCoercerRegistry(CoercerRegistryOpts{})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize global CoercerRegistry: %v", err))
	}
}

func noArg(node Node) Factory {
	return func(arg string, _ *CoercerRegistry) (Node, error) {
		if arg != "" {
			return Node{}, fmt.Errorf("%w: unexpected argument %q", ErrInvalidCoercerExpr, arg)
		}
		return node, nil
	}
}

func stringFactory(arg string, _ *CoercerRegistry) (Node, error) {
	switch arg {
	case "":
		return Leaf(String(false)), nil
	case "trim":
		return Leaf(String(true)), nil
	default:
		return Node{}, fmt.Errorf("%w: string accepts only 'trim', got %q", ErrInvalidCoercerExpr, arg)
	}
}

// enumFactory reads a comma separated candidate list. Integer literals
// become int64 candidates and other numeric literals float64 candidates,
// so enum:'10,20' turns "10" into the number 10.
func enumFactory(arg string, _ *CoercerRegistry) (Node, error) {
	items := splitArgList(arg)
	if len(items) == 0 {
		return Node{}, fmt.Errorf("%w: enum needs at least one candidate", ErrInvalidCoercerExpr)
	}

	candidates := make([]any, len(items))
	for i, item := range items {
		candidates[i] = enumCandidate(item)
	}
	return Leaf(Enum(candidates...)), nil
}

func enumCandidate(item string) any {
	if n, err := strconv.ParseInt(item, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(item, 64); err == nil {
		return f
	}
	return item
}

func regExpFactory(arg string, _ *CoercerRegistry) (Node, error) {
	if arg == "" {
		return Node{}, fmt.Errorf("%w: regexp needs a pattern", ErrInvalidCoercerExpr)
	}
	pattern, err := regexp.Compile(arg)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %w", ErrInvalidCoercerExpr, err)
	}
	return Leaf(RegExp(pattern)), nil
}

// arrayFactory compiles its argument as the element expression. Without an
// argument the raw text elements are kept.
func arrayFactory(arg string, reg *CoercerRegistry) (Node, error) {
	if arg == "" {
		return Leaf(Array[string](nil)), nil
	}
	elem, err := reg.Compile(arg)
	if err != nil {
		return Node{}, err
	}
	return Leaf(Array(elem.asCoercer())), nil
}

func dateFactory(build func([]DateReducer) Node) Factory {
	return func(arg string, _ *CoercerRegistry) (Node, error) {
		names := splitArgList(arg)
		reducers := make([]DateReducer, len(names))
		for i, name := range names {
			reducer, ok := _dateReducers[name]
			if !ok {
				return Node{}, fmt.Errorf("%w: unknown date reducer %q", ErrInvalidCoercerExpr, name)
			}
			reducers[i] = reducer
		}
		return build(reducers), nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// Global Singleton and Package Functions
///////////////////////////////////////////////////////////////////////////////

var _gCoercerRegistry *CoercerRegistry = nil

// Package-level functions that delegate to the global CoercerRegistry instance

func RegisterCoercer(name string, factory Factory) error {
	return _gCoercerRegistry.Register(name, factory)
}

func CompileExpr(expr string) (Node, error) {
	return _gCoercerRegistry.Compile(expr)
}

func CoercerNames() []string {
	return _gCoercerRegistry.Names()
}

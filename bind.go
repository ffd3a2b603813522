package qparse

import (
	"encoding"
	"fmt"
	"net/http"
	"reflect"
	"strings"
)

// Binder fills structs from input data. For every struct type it derives a
// template and a defaults tree from the field tags once, caches them, and
// then walks the input and assigns the output to the struct fields.
//
// Supported tags:
//   - `query:"key"`: the input key of the field. "-" skips the field, a
//     missing tag uses the field name. Text after a comma is ignored.
//   - `coerce:"<expr>"`: the coercer expression of the field (see
//     ParseCoercerExpr). Without it the coercer is inferred from the
//     field type.
//   - `default:"<text>"`: a default, coerced through the field's coercer
//     when the plan is built.
//
// Struct fields without a coerce tag (other than time.Time and uuid.UUID)
// are walked as nested fields.
//
// The Binder is safe for concurrent use.
type Binder struct {
	walker   *Walker
	registry *CoercerRegistry
	plans    lazyCache[reflect.Type, *bindPlan]
}

type BinderOpts struct {
	Walker   *Walker          // nil uses a walker that does not log
	Registry *CoercerRegistry // nil uses the global registry
}

func NewBinder(opts BinderOpts) *Binder {
	return &Binder{
		walker:   opts.Walker,
		registry: opts.Registry,
	}
}

// bindPlan is the cached template of one struct type.
type bindPlan struct {
	StructType reflect.Type
	Template   Node
	Defaults   map[string]any
	Steps      []bindStep
}

// bindStep assigns one template key to one struct field.
type bindStep struct {
	FieldIndex int       // Index of the field in the struct
	FieldName  string    // Name of the field for error reporting
	Key        string    // Template key of the field
	Sub        *bindPlan // Plan of a nested struct field. Nil for leaves.
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// Bind walks input with the template of dest's struct type and assigns the
// result. dest must be a non-nil pointer to a struct. Fields whose key
// resolves to no value are set to their zero value. If assignment fails
// dest is zeroed.
func (b *Binder) Bind(input Value, dest any) error {
	rv := reflect.ValueOf(dest)
	if dest == nil || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrInvalidDestination, dest)
	}

	plan, err := b.plan(rv.Elem().Type())
	if err != nil {
		return err
	}

	out, err := b.walk().Walk(input, plan.Template, plan.Defaults)
	if err != nil {
		return err
	}

	if err := plan.assign(rv.Elem(), out); err != nil {
		rv.Elem().SetZero()
		return err
	}
	return nil
}

// TemplateFor returns the template and defaults tree derived from the tags
// of struct type typ.
func (b *Binder) TemplateFor(typ reflect.Type) (Node, any, error) {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return Node{}, nil, fmt.Errorf("%w, got %v", ErrInvalidDestination, typ)
	}
	plan, err := b.plan(typ)
	if err != nil {
		return Node{}, nil, err
	}
	return plan.Template, plan.Defaults, nil
}

// Reset drops every cached plan. Plans are rebuilt on the next Bind, which
// picks up coercers changed in the registry since.
func (b *Binder) Reset() {
	b.plans.Clear()
}

func (b *Binder) walk() *Walker {
	if b.walker == nil {
		return _gWalker
	}
	return b.walker
}

func (b *Binder) reg() *CoercerRegistry {
	if b.registry == nil {
		return _gCoercerRegistry
	}
	return b.registry
}

func (b *Binder) plan(typ reflect.Type) (*bindPlan, error) {
	return b.plans.GetOrCreate(typ, func() (*bindPlan, error) {
		return b.newPlan(typ, map[reflect.Type]bool{})
	})
}

func (b *Binder) newPlan(typ reflect.Type, visiting map[reflect.Type]bool) (*bindPlan, error) {
	if visiting[typ] {
		return nil, fmt.Errorf("%w: %s refers to itself", ErrUnsupportedFieldType, typ)
	}
	visiting[typ] = true
	defer delete(visiting, typ)

	plan := &bindPlan{
		StructType: typ,
		Defaults:   make(map[string]any),
	}
	fields := make(map[string]Node)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		key, skip := fieldKey(field)
		if skip {
			continue
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("%w: %s.%s reuses key %q", ErrUnsupportedFieldType, typ.Name(), field.Name, key)
		}

		step := bindStep{FieldIndex: i, FieldName: field.Name, Key: key}

		if isNestedStruct(field) {
			sub, err := b.newPlan(derefType(field.Type), visiting)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			step.Sub = sub
			fields[key] = sub.Template
			if len(sub.Defaults) > 0 {
				plan.Defaults[key] = sub.Defaults
			}
		} else {
			leaf, err := b.fieldLeaf(field)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			fields[key] = leaf

			if text, ok := field.Tag.Lookup(DefaultTagName); ok {
				value, ok := leaf.Coerce(Text(text))
				if !ok {
					return nil, fmt.Errorf("field %s: %w: %q", field.Name, ErrInvalidDefault, text)
				}
				plan.Defaults[key] = value
			}
		}

		plan.Steps = append(plan.Steps, step)
	}

	plan.Template = Fields(fields)
	return plan, nil
}

func (b *Binder) fieldLeaf(field reflect.StructField) (Node, error) {
	if expr := field.Tag.Get(CoerceTagName); expr != "" {
		return b.reg().Compile(expr)
	}
	return inferLeaf(field.Type)
}

// assign copies a walk output into the struct value sv.
func (plan *bindPlan) assign(sv reflect.Value, out any) error {
	values, _ := out.(map[string]any)

	for _, step := range plan.Steps {
		field := sv.Field(step.FieldIndex)
		if !field.CanSet() {
			continue
		}

		if step.Sub != nil {
			target := field
			if field.Kind() == reflect.Pointer {
				target = reflect.New(field.Type().Elem()).Elem()
			}
			if err := step.Sub.assign(target, values[step.Key]); err != nil {
				return fmt.Errorf("failed to bind field %s: %w", step.FieldName, err)
			}
			if field.Kind() == reflect.Pointer {
				field.Set(target.Addr())
			}
			continue
		}

		if err := setFieldValue(field, values[step.Key]); err != nil {
			return fmt.Errorf("failed to bind field %s: %w", step.FieldName, err)
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Helpers
///////////////////////////////////////////////////////////////////////////////

func fieldKey(field reflect.StructField) (string, bool) {
	tag, ok := field.Tag.Lookup(QueryTagName)
	if !ok {
		return field.Name, false
	}
	key, _, _ := strings.Cut(tag, ",")
	key = strings.TrimSpace(key)
	switch key {
	case SkipTagValue:
		return "", true
	case "":
		return field.Name, false
	default:
		return key, false
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// isNestedStruct reports whether field is walked as nested fields rather
// than coerced as a leaf.
func isNestedStruct(field reflect.StructField) bool {
	if _, ok := field.Tag.Lookup(CoerceTagName); ok {
		return false
	}
	t := derefType(field.Type)
	return t.Kind() == reflect.Struct && !isSpecialStructType(t)
}

// isSpecialStructType checks if a struct type should be treated as a leaf
// rather than being walked as nested fields.
func isSpecialStructType(t reflect.Type) bool {
	return t == TimeType || t == UUIDType || reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// inferLeaf picks the coercer for a field without a coerce tag.
//
// Currently supports:
//   - string kinds: String (untrimmed)
//   - bool kinds: Boolean
//   - signed integer kinds: Integer
//   - unsigned integer kinds: Natural
//   - float kinds: Number
//   - time.Time: Date
//   - uuid.UUID: UUID
//   - types whose pointer implements encoding.TextUnmarshaler
//   - slices of any of the above: Array
//   - pointers to any of the above
func inferLeaf(t reflect.Type) (Node, error) {
	t = derefType(t)

	switch t {
	case TimeType:
		return Leaf(Date()), nil
	case UUIDType:
		return Leaf(UUID()), nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return Leaf(textUnmarshalerCoercer(t)), nil
	}

	switch t.Kind() {
	case reflect.String:
		return Leaf(String(false)), nil
	case reflect.Bool:
		return Leaf(Boolean()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Leaf(Integer()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Leaf(Natural()), nil
	case reflect.Float32, reflect.Float64:
		return Leaf(Number()), nil
	case reflect.Slice:
		elem, err := inferLeaf(t.Elem())
		if err != nil {
			return Node{}, err
		}
		return Leaf(Array(elem.asCoercer())), nil
	default:
		return Node{}, fmt.Errorf("%w: %s", ErrUnsupportedFieldType, t)
	}
}

// textUnmarshalerCoercer coerces trimmed text through the UnmarshalText
// method of t.
func textUnmarshalerCoercer(t reflect.Type) Coercer[any] {
	return func(v Value) (any, bool) {
		s, ok := v.Text()
		if !ok {
			return nil, false
		}
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
			return nil, false
		}
		return ptr.Elem().Interface(), true
	}
}

///////////////////////////////////////////////////////////////////////////////
// Global Singleton and Package Functions
///////////////////////////////////////////////////////////////////////////////

var _gBinder = NewBinder(BinderOpts{})

// Bind binds input into dest with the global binder.
func Bind(input Value, dest any) error {
	return _gBinder.Bind(input, dest)
}

// BindRequest binds the query parameters of r into dest with the global
// binder.
func BindRequest(r *http.Request, dest any) error {
	return _gBinder.Bind(FromRequest(r), dest)
}

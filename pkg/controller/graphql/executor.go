package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// fieldResolver produces the raw value of one field of src. List fields return []any.
type fieldResolver func(ctx context.Context, src any, args map[string]any) (any, error)

// objectResolvers maps field names of one object type to their resolvers
type objectResolvers map[string]fieldResolver

// object is a response map that keeps the order of the selection set
type object struct {
	keys   []string
	values map[string]any
}

func newObject() *object {
	return &object{values: map[string]any{}}
}

func (o *object) set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal field", goerr.V("field", k))
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// execution runs one operation. Fields are resolved sequentially in selection order.
type execution struct {
	schema    *ast.Schema
	resolvers map[string]objectResolvers
	vars      map[string]any
	errs      gqlerror.List
}

// run executes the operation and returns its data, or nil when a non-null root field failed
func (e *execution) run(ctx context.Context, op *ast.OperationDefinition) *object {
	root := e.schema.Query
	if root == nil {
		return nil
	}
	data, ok := e.selectionSet(ctx, root.Name, nil, op.SelectionSet, nil)
	if !ok {
		return nil
	}
	return data
}

// selectionSet resolves the fields of one object. It reports false when a non-null field
// resolved to null, in which case the object itself becomes null.
func (e *execution) selectionSet(ctx context.Context, typeName string, src any, set ast.SelectionSet, path ast.Path) (*object, bool) {
	out := newObject()

	for _, group := range e.collectFields(set) {
		field := group.fields[0]
		fieldPath := extendPath(path, ast.PathName(group.key))

		if field.Name == "__typename" {
			out.set(group.key, typeName)
			continue
		}

		resolver, ok := e.resolvers[typeName][field.Name]
		if !ok {
			e.addError(ctx, field, fieldPath, goerr.New("field has no resolver", goerr.V("type", typeName), goerr.V("field", field.Name)))
			return nil, false
		}

		value, err := resolver(ctx, src, field.ArgumentMap(e.vars))
		if err != nil {
			e.addError(ctx, field, fieldPath, err)
			value = nil
		}

		completed := e.complete(ctx, field.Definition.Type, value, group.selections(), fieldPath)
		if completed == nil && field.Definition.Type.NonNull {
			return nil, false
		}
		out.set(group.key, completed)
	}

	return out, true
}

// complete converts a resolved value into its response form according to the field type
func (e *execution) complete(ctx context.Context, typ *ast.Type, value any, set ast.SelectionSet, path ast.Path) any {
	if isNull(value) {
		return nil
	}

	if typ.Elem != nil {
		items, ok := value.([]any)
		if !ok {
			return nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			c := e.complete(ctx, typ.Elem, item, set, extendPath(path, ast.PathIndex(i)))
			if c == nil && typ.Elem.NonNull {
				return nil
			}
			out[i] = c
		}
		return out
	}

	def := e.schema.Types[typ.NamedType]
	if def == nil {
		return nil
	}

	switch def.Kind {
	case ast.Scalar, ast.Enum:
		return serializeScalar(typ.NamedType, value)
	case ast.Object:
		obj, ok := e.selectionSet(ctx, typ.NamedType, value, set, path)
		if !ok {
			return nil
		}
		return obj
	default:
		return nil
	}
}

type fieldGroup struct {
	key    string
	fields []*ast.Field
}

func (g *fieldGroup) selections() ast.SelectionSet {
	if len(g.fields) == 1 {
		return g.fields[0].SelectionSet
	}
	var merged ast.SelectionSet
	for _, f := range g.fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// collectFields flattens fragments and groups fields by response key
func (e *execution) collectFields(set ast.SelectionSet) []*fieldGroup {
	var groups []*fieldGroup
	index := map[string]*fieldGroup{}

	var walk func(ast.SelectionSet)
	walk = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch s := sel.(type) {
			case *ast.Field:
				if !e.included(s.Directives) {
					continue
				}
				key := s.Alias
				if key == "" {
					key = s.Name
				}
				if g, ok := index[key]; ok {
					g.fields = append(g.fields, s)
					continue
				}
				g := &fieldGroup{key: key, fields: []*ast.Field{s}}
				index[key] = g
				groups = append(groups, g)

			case *ast.InlineFragment:
				if e.included(s.Directives) {
					walk(s.SelectionSet)
				}

			case *ast.FragmentSpread:
				if e.included(s.Directives) && s.Definition != nil {
					walk(s.Definition.SelectionSet)
				}
			}
		}
	}
	walk(set)

	return groups
}

// included evaluates @skip and @include
func (e *execution) included(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(e.vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(e.vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

func (e *execution) addError(ctx context.Context, field *ast.Field, path ast.Path, err error) {
	msg, code := presentError(ctx, err)
	gqlErr := &gqlerror.Error{
		Message:    msg,
		Path:       path,
		Extensions: map[string]any{"code": code},
	}
	if field.Position != nil {
		gqlErr.Locations = []gqlerror.Location{{Line: field.Position.Line, Column: field.Position.Column}}
	}
	e.errs = append(e.errs, gqlErr)
}

func extendPath(path ast.Path, el ast.PathElement) ast.Path {
	out := make(ast.Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, el)
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

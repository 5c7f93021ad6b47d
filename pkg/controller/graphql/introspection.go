package graphql

import (
	"context"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/vektah/gqlparser/v2/ast"
)

var errIntrospectionDisabled = model.ValidationError("introspection disabled", nil)

// introspectionEnabled reports whether the executor allows __schema and __type for this operation
func introspectionEnabled(ctx context.Context) bool {
	return graphql.HasOperationContext(ctx) && !graphql.GetOperationContext(ctx).DisableIntrospection
}

func wrapSchema(schema *ast.Schema) *introspection.Schema {
	return introspection.WrapSchema(schema)
}

func lookupType(schema *ast.Schema, name string) *introspection.Type {
	def, ok := schema.Types[name]
	if !ok {
		return nil
	}
	return introspection.WrapTypeFromDef(schema, def)
}

func typeRefs(types []introspection.Type) []any {
	out := make([]any, len(types))
	for i := range types {
		out[i] = &types[i]
	}
	return out
}

func inputValueRefs(values []introspection.InputValue) []any {
	out := make([]any, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

func constant(v any) fieldResolver {
	return func(context.Context, any, map[string]any) (any, error) {
		return v, nil
	}
}

func schemaFields() objectResolvers {
	get := func(f func(s *introspection.Schema) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*introspection.Schema)), nil
		}
	}
	return objectResolvers{
		"description":      constant(nil),
		"types":            get(func(s *introspection.Schema) any { return typeRefs(s.Types()) }),
		"queryType":        get(func(s *introspection.Schema) any { return s.QueryType() }),
		"mutationType":     get(func(s *introspection.Schema) any { return s.MutationType() }),
		"subscriptionType": get(func(s *introspection.Schema) any { return s.SubscriptionType() }),
		"directives": get(func(s *introspection.Schema) any {
			directives := s.Directives()
			out := make([]any, len(directives))
			for i := range directives {
				out[i] = &directives[i]
			}
			return out
		}),
	}
}

func typeFields() objectResolvers {
	get := func(f func(t *introspection.Type, args map[string]any) any) fieldResolver {
		return func(_ context.Context, src any, args map[string]any) (any, error) {
			return f(src.(*introspection.Type), args), nil
		}
	}
	return objectResolvers{
		"kind":           get(func(t *introspection.Type, _ map[string]any) any { return t.Kind() }),
		"name":           get(func(t *introspection.Type, _ map[string]any) any { return t.Name() }),
		"description":    get(func(t *introspection.Type, _ map[string]any) any { return t.Description() }),
		"specifiedByURL": constant(nil),
		"isOneOf":        constant(false),
		"fields": get(func(t *introspection.Type, args map[string]any) any {
			includeDeprecated, _ := args["includeDeprecated"].(bool)
			fields := t.Fields(includeDeprecated)
			if fields == nil {
				return nil
			}
			out := make([]any, len(fields))
			for i := range fields {
				out[i] = &fields[i]
			}
			return out
		}),
		"interfaces": get(func(t *introspection.Type, _ map[string]any) any {
			if types := t.Interfaces(); types != nil {
				return typeRefs(types)
			}
			return nil
		}),
		"possibleTypes": get(func(t *introspection.Type, _ map[string]any) any {
			if types := t.PossibleTypes(); types != nil {
				return typeRefs(types)
			}
			return nil
		}),
		"enumValues": get(func(t *introspection.Type, args map[string]any) any {
			includeDeprecated, _ := args["includeDeprecated"].(bool)
			values := t.EnumValues(includeDeprecated)
			if values == nil {
				return nil
			}
			out := make([]any, len(values))
			for i := range values {
				out[i] = &values[i]
			}
			return out
		}),
		"inputFields": get(func(t *introspection.Type, _ map[string]any) any {
			if values := t.InputFields(); values != nil {
				return inputValueRefs(values)
			}
			return nil
		}),
		"ofType": get(func(t *introspection.Type, _ map[string]any) any { return t.OfType() }),
	}
}

func fieldFields() objectResolvers {
	get := func(f func(x *introspection.Field) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*introspection.Field)), nil
		}
	}
	return objectResolvers{
		"name":              get(func(x *introspection.Field) any { return x.Name }),
		"description":       get(func(x *introspection.Field) any { return x.Description() }),
		"args":              get(func(x *introspection.Field) any { return inputValueRefs(x.Args) }),
		"type":              get(func(x *introspection.Field) any { return x.Type }),
		"isDeprecated":      get(func(x *introspection.Field) any { return x.IsDeprecated() }),
		"deprecationReason": get(func(x *introspection.Field) any { return x.DeprecationReason() }),
	}
}

// input values of this schema are never deprecated
func inputValueFields() objectResolvers {
	get := func(f func(x *introspection.InputValue) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*introspection.InputValue)), nil
		}
	}
	return objectResolvers{
		"name":              get(func(x *introspection.InputValue) any { return x.Name }),
		"description":       get(func(x *introspection.InputValue) any { return x.Description() }),
		"type":              get(func(x *introspection.InputValue) any { return x.Type }),
		"defaultValue":      get(func(x *introspection.InputValue) any { return x.DefaultValue }),
		"isDeprecated":      constant(false),
		"deprecationReason": constant(nil),
	}
}

func enumValueFields() objectResolvers {
	get := func(f func(x *introspection.EnumValue) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*introspection.EnumValue)), nil
		}
	}
	return objectResolvers{
		"name":              get(func(x *introspection.EnumValue) any { return x.Name }),
		"description":       get(func(x *introspection.EnumValue) any { return x.Description() }),
		"isDeprecated":      get(func(x *introspection.EnumValue) any { return x.IsDeprecated() }),
		"deprecationReason": get(func(x *introspection.EnumValue) any { return x.DeprecationReason() }),
	}
}

func directiveFields() objectResolvers {
	get := func(f func(x *introspection.Directive) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*introspection.Directive)), nil
		}
	}
	return objectResolvers{
		"name":         get(func(x *introspection.Directive) any { return x.Name }),
		"description":  get(func(x *introspection.Directive) any { return x.Description() }),
		"locations":    get(func(x *introspection.Directive) any { return listOf(x.Locations) }),
		"args":         get(func(x *introspection.Directive) any { return inputValueRefs(x.Args) }),
		"isRepeatable": get(func(x *introspection.Directive) any { return x.IsRepeatable }),
	}
}

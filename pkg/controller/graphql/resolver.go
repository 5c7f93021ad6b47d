package graphql

import (
	"context"
	"strings"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/vektah/gqlparser/v2/ast"
)

// Resolver resolves the fields of the read-only case management graph
type Resolver struct {
	uc *usecase.UseCases
}

func NewResolver(uc *usecase.UseCases) *Resolver {
	return &Resolver{uc: uc}
}

// iocNode is an IOC as seen from one case
type iocNode struct {
	*model.IOC
	caseID int64
}

type pageNode struct {
	total       int
	currentPage int
	perPage     int
	lastPage    int
	nextPage    *int
	items       []any
}

func newPageNode[T any](p *query.Page[T], wrap func(T) any) *pageNode {
	items := make([]any, len(p.Items))
	for i, x := range p.Items {
		items[i] = wrap(x)
	}
	return &pageNode{
		total:       p.Total,
		currentPage: p.CurrentPage,
		perPage:     p.PerPage,
		lastPage:    p.LastPage,
		nextPage:    p.NextPage,
		items:       items,
	}
}

func listOf[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// nullIfNotFound resolves a lookup miss to null and keeps any other error
func nullIfNotFound(err error) (any, error) {
	if be, ok := model.AsBusinessError(err); ok && be.Kind() == model.ErrKindNotFound {
		return nil, nil
	}
	return nil, err
}

func (r *Resolver) resolvers(schema *ast.Schema) map[string]objectResolvers {
	return map[string]objectResolvers{
		"Query":       r.query(schema),
		"Case":        r.caseFields(),
		"IOC":         r.iocFields(),
		"Comment":     commentFields(),
		"IOCPage":     pageFields(),
		"AlertPage":   pageFields(),
		"Alert":       r.alertFields(),
		"IOCType":     iocTypeFields(),
		"TLP":         tlpFields(),
		"LookupEntry": lookupFields(),

		"__Schema":     schemaFields(),
		"__Type":       typeFields(),
		"__Field":      fieldFields(),
		"__InputValue": inputValueFields(),
		"__EnumValue":  enumValueFields(),
		"__Directive":  directiveFields(),
	}
}

func (r *Resolver) query(schema *ast.Schema) objectResolvers {
	return objectResolvers{
		"cases": func(ctx context.Context, _ any, _ map[string]any) (any, error) {
			cases, err := r.uc.Case.List(ctx)
			if err != nil {
				return nil, err
			}
			return listOf(cases), nil
		},
		"case": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			id, err := idArg(args, "id")
			if err != nil {
				return nil, nil
			}
			c, err := r.uc.Case.Get(ctx, id)
			if err != nil {
				return nullIfNotFound(err)
			}
			return c, nil
		},
		"iocs": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			caseID, err := idArg(args, "caseId")
			if err != nil {
				return nil, model.NotFoundError(usecase.MsgCaseNotFound, err)
			}
			if _, err := r.uc.Case.Get(ctx, caseID); err != nil {
				return nil, err
			}
			return r.listIOCs(ctx, caseID, args)
		},
		"ioc": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			caseID, err := idArg(args, "caseId")
			if err != nil {
				return nil, nil
			}
			id, err := idArg(args, "id")
			if err != nil {
				return nil, nil
			}
			ioc, err := r.uc.IOC.Get(ctx, caseID, id)
			if err != nil {
				return nullIfNotFound(err)
			}
			return &iocNode{IOC: ioc, caseID: caseID}, nil
		},
		"alerts": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			filter, err := alertFilterArg(args)
			if err != nil {
				return nil, err
			}
			req, err := listArgs(args)
			if err != nil {
				return nil, err
			}
			page, err := r.uc.Alert.List(ctx, filter, req)
			if err != nil {
				return nil, err
			}
			return newPageNode(page, func(a *model.Alert) any { return a }), nil
		},
		"alert": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			id, err := idArg(args, "id")
			if err != nil {
				return nil, nil
			}
			alert, err := r.uc.Alert.Get(ctx, id)
			if err != nil {
				return nullIfNotFound(err)
			}
			return alert, nil
		},
		"iocTypes": func(context.Context, any, map[string]any) (any, error) {
			return listOf(r.uc.Catalog().IOCTypes()), nil
		},
		"tlps": func(context.Context, any, map[string]any) (any, error) {
			return listOf(r.uc.Catalog().TLPs()), nil
		},
		"alertStatuses": func(context.Context, any, map[string]any) (any, error) {
			return listOf(r.uc.Catalog().AlertStatuses()), nil
		},
		"alertSeverities": func(context.Context, any, map[string]any) (any, error) {
			return listOf(r.uc.Catalog().AlertSeverities()), nil
		},
		"__schema": func(ctx context.Context, _ any, _ map[string]any) (any, error) {
			if !introspectionEnabled(ctx) {
				return nil, errIntrospectionDisabled
			}
			return wrapSchema(schema), nil
		},
		"__type": func(ctx context.Context, _ any, args map[string]any) (any, error) {
			if !introspectionEnabled(ctx) {
				return nil, errIntrospectionDisabled
			}
			name, _ := args["name"].(string)
			return lookupType(schema, name), nil
		},
	}
}

func (r *Resolver) listIOCs(ctx context.Context, caseID int64, args map[string]any) (any, error) {
	filter, err := iocFilterArg(args)
	if err != nil {
		return nil, err
	}
	req, err := listArgs(args)
	if err != nil {
		return nil, err
	}
	page, err := r.uc.IOC.List(ctx, caseID, filter, req)
	if err != nil {
		return nil, err
	}
	return newPageNode(page, func(x *model.IOC) any { return &iocNode{IOC: x, caseID: caseID} }), nil
}

func (r *Resolver) caseFields() objectResolvers {
	get := func(f func(c *model.Case) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*model.Case)), nil
		}
	}
	return objectResolvers{
		"id":          get(func(c *model.Case) any { return c.ID }),
		"name":        get(func(c *model.Case) any { return c.Name }),
		"description": get(func(c *model.Case) any { return c.Description }),
		"userId":      get(func(c *model.Case) any { return c.UserID }),
		"openDate":    get(func(c *model.Case) any { return c.CreatedAt }),
		"iocs": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return r.listIOCs(ctx, src.(*model.Case).ID, args)
		},
	}
}

func (r *Resolver) iocFields() objectResolvers {
	get := func(f func(x *iocNode) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*iocNode)), nil
		}
	}
	catalog := r.uc.Catalog()

	return objectResolvers{
		"id":     get(func(x *iocNode) any { return x.ID }),
		"value":  get(func(x *iocNode) any { return x.Value }),
		"typeId": get(func(x *iocNode) any { return x.TypeID }),
		"type": get(func(x *iocNode) any {
			if t, ok := catalog.IOCTypeByID(x.TypeID); ok {
				return t
			}
			return nil
		}),
		"tlpId": get(func(x *iocNode) any { return x.TLPID }),
		"tlp": get(func(x *iocNode) any {
			if t, ok := catalog.TLPByID(x.TLPID); ok {
				return t
			}
			return nil
		}),
		"description":      get(func(x *iocNode) any { return x.Description }),
		"tags":             get(func(x *iocNode) any { return listOf(splitTags(x.Tags)) }),
		"customAttributes": get(func(x *iocNode) any { return x.CustomAttributes }),
		"userId":           get(func(x *iocNode) any { return x.UserID }),
		"createdAt":        get(func(x *iocNode) any { return x.CreatedAt }),
		"updatedAt":        get(func(x *iocNode) any { return x.UpdatedAt }),
		"comments": func(ctx context.Context, src any, _ map[string]any) (any, error) {
			x := src.(*iocNode)
			comments, err := r.uc.Comment.List(ctx, x.caseID, x.ID)
			if err != nil {
				return nil, err
			}
			return listOf(comments), nil
		},
	}
}

func splitTags(tags string) []string {
	out := []string{}
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func commentFields() objectResolvers {
	get := func(f func(c *model.Comment) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*model.Comment)), nil
		}
	}
	return objectResolvers{
		"id":        get(func(c *model.Comment) any { return c.ID }),
		"text":      get(func(c *model.Comment) any { return c.Text }),
		"userId":    get(func(c *model.Comment) any { return c.UserID }),
		"caseId":    get(func(c *model.Comment) any { return c.CaseID }),
		"createdAt": get(func(c *model.Comment) any { return c.CreatedAt }),
		"updatedAt": get(func(c *model.Comment) any { return c.UpdatedAt }),
	}
}

func pageFields() objectResolvers {
	get := func(f func(p *pageNode) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*pageNode)), nil
		}
	}
	return objectResolvers{
		"total":       get(func(p *pageNode) any { return p.total }),
		"currentPage": get(func(p *pageNode) any { return p.currentPage }),
		"perPage":     get(func(p *pageNode) any { return p.perPage }),
		"lastPage":    get(func(p *pageNode) any { return p.lastPage }),
		"nextPage":    get(func(p *pageNode) any { return p.nextPage }),
		"items":       get(func(p *pageNode) any { return p.items }),
	}
}

func (r *Resolver) alertFields() objectResolvers {
	get := func(f func(a *model.Alert) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(*model.Alert)), nil
		}
	}
	catalog := r.uc.Catalog()

	return objectResolvers{
		"id":          get(func(a *model.Alert) any { return a.ID }),
		"title":       get(func(a *model.Alert) any { return a.Title }),
		"description": get(func(a *model.Alert) any { return a.Description }),
		"source":      get(func(a *model.Alert) any { return a.Source }),
		"statusId":    get(func(a *model.Alert) any { return a.StatusID }),
		"status": get(func(a *model.Alert) any {
			if e, ok := catalog.AlertStatusByID(a.StatusID); ok {
				return e
			}
			return nil
		}),
		"severityId": get(func(a *model.Alert) any { return a.SeverityID }),
		"severity": get(func(a *model.Alert) any {
			if e, ok := catalog.AlertSeverityByID(a.SeverityID); ok {
				return e
			}
			return nil
		}),
		"ownerId":          get(func(a *model.Alert) any { return a.OwnerID }),
		"creationTime":     get(func(a *model.Alert) any { return a.CreationTime }),
		"customAttributes": get(func(a *model.Alert) any { return a.CustomAttributes }),
	}
}

func iocTypeFields() objectResolvers {
	get := func(f func(t model.IOCType) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(model.IOCType)), nil
		}
	}
	return objectResolvers{
		"id":          get(func(t model.IOCType) any { return t.ID }),
		"name":        get(func(t model.IOCType) any { return t.Name }),
		"description": get(func(t model.IOCType) any { return t.Description }),
		"validationRegex": get(func(t model.IOCType) any {
			if t.ValidationRegex == "" {
				return nil
			}
			return t.ValidationRegex
		}),
		"validationExpect": get(func(t model.IOCType) any {
			if t.ValidationExpect == "" {
				return nil
			}
			return t.ValidationExpect
		}),
	}
}

func tlpFields() objectResolvers {
	get := func(f func(t model.TLP) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(model.TLP)), nil
		}
	}
	return objectResolvers{
		"id":      get(func(t model.TLP) any { return t.ID }),
		"name":    get(func(t model.TLP) any { return t.Name }),
		"bgColor": get(func(t model.TLP) any { return t.BgColor }),
	}
}

func lookupFields() objectResolvers {
	get := func(f func(e model.LookupEntry) any) fieldResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return f(src.(model.LookupEntry)), nil
		}
	}
	return objectResolvers{
		"id":          get(func(e model.LookupEntry) any { return e.ID }),
		"name":        get(func(e model.LookupEntry) any { return e.Name }),
		"description": get(func(e model.LookupEntry) any { return e.Description }),
	}
}

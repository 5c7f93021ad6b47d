package graphql

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/secmon-lab/caseflow/pkg/utils/errutil"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

//go:embed schema.graphql
var schemaSource string

const queryCacheSize = 1000

// executableSchema exposes the resolver tree to the gqlgen executor
type executableSchema struct {
	schema    *ast.Schema
	resolvers map[string]objectResolvers
}

var _ graphql.ExecutableSchema = &executableSchema{}

func NewExecutableSchema(uc *usecase.UseCases) (graphql.ExecutableSchema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSource})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load GraphQL schema")
	}

	return &executableSchema{
		schema:    schema,
		resolvers: NewResolver(uc).resolvers(schema),
	}, nil
}

func (es *executableSchema) Schema() *ast.Schema {
	return es.schema
}

func (es *executableSchema) Complexity(_ context.Context, _, _ string, childComplexity int, _ map[string]any) (int, bool) {
	return childComplexity, false
}

// Exec runs the operation that the executor has already parsed and validated
func (es *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	if opCtx.Operation.Operation != ast.Query {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "only queries are supported"))
	}

	var done bool
	return func(ctx context.Context) *graphql.Response {
		if done {
			return nil
		}
		done = true

		exec := &execution{
			schema:    es.schema,
			resolvers: es.resolvers,
			vars:      opCtx.Variables,
		}
		data := exec.run(ctx, opCtx.Operation)
		for _, err := range exec.errs {
			graphql.AddError(ctx, err)
		}
		if data == nil {
			return &graphql.Response{}
		}

		raw, err := json.Marshal(data)
		if err != nil {
			graphql.AddError(ctx, goerr.Wrap(err, "failed to marshal GraphQL response"))
			return &graphql.Response{}
		}
		return &graphql.Response{Data: raw}
	}
}

// NewHandler builds the HTTP handler for /graphql. Queries are accepted over GET and POST.
func NewHandler(uc *usecase.UseCases) (http.Handler, error) {
	es, err := NewExecutableSchema(uc)
	if err != nil {
		return nil, err
	}

	srv := handler.New(es)
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})
	srv.SetQueryCache(lru.New[*ast.QueryDocument](queryCacheSize))
	srv.Use(extension.Introspection{})

	srv.SetErrorPresenter(func(ctx context.Context, err error) *gqlerror.Error {
		gqlErr := graphql.DefaultErrorPresenter(ctx, err)
		if gqlErr != nil && len(gqlErr.Path) == 0 {
			logging.From(ctx).Info("rejected GraphQL request", "error", err)
		}
		return gqlErr
	})

	srv.SetRecoverFunc(func(ctx context.Context, panicValue any) error {
		var panicErr error
		switch e := panicValue.(type) {
		case error:
			panicErr = e
		case string:
			panicErr = goerr.New(e)
		default:
			panicErr = goerr.New("panic occurred", goerr.V("panic", panicValue))
		}
		_ = errutil.Handle(ctx, panicErr, "GraphQL panic")
		return gqlerror.Errorf("%s", usecase.MsgInternal)
	})

	return srv, nil
}

// presentError maps a resolver error to the message and code shown to clients. Errors that are
// not business errors are reported and hidden.
func presentError(ctx context.Context, err error) (string, string) {
	if errors.Is(err, query.ErrFiltering) {
		return "Filtering error", "filtering"
	}
	if be, ok := model.AsBusinessError(err); ok {
		if be.Kind() == model.ErrKindInternal {
			_ = errutil.Handle(ctx, err, "internal error in GraphQL resolver")
		}
		return be.Message(), be.Kind().String()
	}
	_ = errutil.Handle(ctx, err, "unexpected error in GraphQL resolver")
	return usecase.MsgInternal, model.ErrKindInternal.String()
}

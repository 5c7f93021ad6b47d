package graphql_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/controller/graphql"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/repository/memory"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

type result struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func setup(t *testing.T) (http.Handler, context.Context) {
	t.Helper()
	ctx := auth.ContextWithUser(context.Background(), auth.NewAnonymousUser())
	uc := usecase.New(memory.New())

	_, err := uc.Case.EnsureDefault(ctx)
	gt.NoError(t, err).Required()

	_, _, err = uc.IOC.Create(ctx, 1, map[string]any{
		"ioc_value":   "evil.example.com",
		"ioc_type_id": 2,
		"ioc_tags":    "phishing, c2",
	})
	gt.NoError(t, err).Required()
	_, _, err = uc.IOC.Create(ctx, 1, map[string]any{
		"ioc_value":   "10.0.0.1",
		"ioc_type_id": 1,
		"ioc_tlp_id":  1,
	})
	gt.NoError(t, err).Required()
	_, _, err = uc.Comment.Add(ctx, 1, 1, map[string]any{"comment_text": "blocked at the proxy"})
	gt.NoError(t, err).Required()
	_, _, err = uc.Alert.Create(ctx, map[string]any{
		"alert_title":       "Phishing mail reported",
		"alert_source":      "mailgw",
		"alert_status_id":   1,
		"alert_severity_id": 3,
	})
	gt.NoError(t, err).Required()

	h, err := graphql.NewHandler(uc)
	gt.NoError(t, err).Required()
	return h, ctx
}

func post(t *testing.T, h http.Handler, ctx context.Context, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func execute(t *testing.T, h http.Handler, ctx context.Context, q string, vars map[string]any) *result {
	t.Helper()
	body, err := json.Marshal(map[string]any{"query": q, "variables": vars})
	gt.NoError(t, err).Required()

	w := post(t, h, ctx, body)
	var out result
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &out)).Required()
	return &out
}

func TestCaseQuery(t *testing.T) {
	h, ctx := setup(t)

	res := execute(t, h, ctx, `{
		cases { id name }
		case(id: 1) {
			name
			iocs(filter: {type: "domain"}) {
				total
				items { value tags tlp { name } comments { text } }
			}
		}
	}`, nil)
	gt.Array(t, res.Errors).Length(0)

	cases := res.Data["cases"].([]any)
	gt.Array(t, cases).Length(1)
	gt.Value(t, cases[0].(map[string]any)["id"]).Equal("1")

	page := res.Data["case"].(map[string]any)["iocs"].(map[string]any)
	gt.Value(t, page["total"]).Equal(float64(1))
	ioc := page["items"].([]any)[0].(map[string]any)
	gt.Value(t, ioc["value"]).Equal("evil.example.com")
	gt.Value(t, ioc["tags"]).Equal([]any{"phishing", "c2"})
	gt.Value(t, ioc["tlp"].(map[string]any)["name"]).Equal("amber")
	gt.Array(t, ioc["comments"].([]any)).Length(1)
}

func TestIOCQuery(t *testing.T) {
	h, ctx := setup(t)

	t.Run("variables and aliases", func(t *testing.T) {
		res := execute(t, h, ctx, `query Get($case: ID!, $id: ID!) {
			found: ioc(caseId: $case, id: $id) { value type { name } }
			missing: ioc(caseId: $case, id: 99) { value }
		}`, map[string]any{"case": "1", "id": json.Number("2")})
		gt.Array(t, res.Errors).Length(0)

		found := res.Data["found"].(map[string]any)
		gt.Value(t, found["value"]).Equal("10.0.0.1")
		gt.Value(t, found["type"].(map[string]any)["name"]).Equal("ip")
		gt.Value(t, res.Data["missing"]).Nil()
	})

	t.Run("pagination and ordering", func(t *testing.T) {
		res := execute(t, h, ctx, `{
			iocs(caseId: 1, perPage: 1, orderBy: "ioc_value", sortDir: "asc") {
				total lastPage nextPage items { value }
			}
		}`, nil)
		gt.Array(t, res.Errors).Length(0)

		page := res.Data["iocs"].(map[string]any)
		gt.Value(t, page["total"]).Equal(float64(2))
		gt.Value(t, page["nextPage"]).Equal(float64(2))
		gt.Value(t, page["items"].([]any)[0].(map[string]any)["value"]).Equal("10.0.0.1")
	})

	t.Run("bad sort field is a filtering error", func(t *testing.T) {
		res := execute(t, h, ctx, `{ iocs(caseId: 1, orderBy: "nope") { total } }`, nil)
		gt.Array(t, res.Errors).Length(1)
		gt.Value(t, res.Errors[0].Message).Equal("Filtering error")
		gt.Bool(t, res.Data == nil).True()
	})

	t.Run("unknown case", func(t *testing.T) {
		res := execute(t, h, ctx, `{ iocs(caseId: 5) { total } }`, nil)
		gt.Array(t, res.Errors).Length(1)
		gt.Value(t, res.Errors[0].Message).Equal(usecase.MsgCaseNotFound)
		gt.Value(t, res.Errors[0].Extensions["code"]).Equal("not_found")
	})
}

func TestAlertQuery(t *testing.T) {
	h, ctx := setup(t)

	res := execute(t, h, ctx, `{
		alerts(filter: {source: "mail"}) {
			total
			items { title status { name } severity { id } ownerId }
		}
		alert(id: 1) { ... on Alert { __typename title } }
	}`, nil)
	gt.Array(t, res.Errors).Length(0)

	page := res.Data["alerts"].(map[string]any)
	gt.Value(t, page["total"]).Equal(float64(1))
	item := page["items"].([]any)[0].(map[string]any)
	gt.Value(t, item["title"]).Equal("Phishing mail reported")
	gt.Value(t, item["severity"].(map[string]any)["id"]).Equal(float64(3))
	gt.Value(t, item["ownerId"]).Nil()

	alert := res.Data["alert"].(map[string]any)
	gt.Value(t, alert["__typename"]).Equal("Alert")

	t.Run("bad timestamp", func(t *testing.T) {
		res := execute(t, h, ctx, `{ alerts(filter: {startDate: "soon", endDate: "later"}) { total } }`, nil)
		gt.Array(t, res.Errors).Length(1)
		gt.Value(t, res.Errors[0].Message).Equal("Filtering error")
	})
}

func TestCatalogQuery(t *testing.T) {
	h, ctx := setup(t)

	res := execute(t, h, ctx, `{ iocTypes { id name } tlps { name } alertStatuses { name } }`, nil)
	gt.Array(t, res.Errors).Length(0)
	gt.Array(t, res.Data["iocTypes"].([]any)).Length(10)
	gt.Array(t, res.Data["tlps"].([]any)).Length(4)
}

func TestIntrospection(t *testing.T) {
	h, ctx := setup(t)

	res := execute(t, h, ctx, `{
		__schema { queryType { name } types { name kind } }
		__type(name: "IOC") { fields { name type { kind ofType { name } } } }
	}`, nil)
	gt.Array(t, res.Errors).Length(0)

	schema := res.Data["__schema"].(map[string]any)
	gt.Value(t, schema["queryType"].(map[string]any)["name"]).Equal("Query")

	fields := res.Data["__type"].(map[string]any)["fields"].([]any)
	names := map[string]bool{}
	for _, f := range fields {
		names[f.(map[string]any)["name"].(string)] = true
	}
	gt.Bool(t, names["comments"]).True()
	gt.Bool(t, names["customAttributes"]).True()
}

func TestIntrospectionDisabled(t *testing.T) {
	_, ctx := setup(t)

	es, err := graphql.NewExecutableSchema(usecase.New(memory.New()))
	gt.NoError(t, err).Required()
	srv := handler.New(es)
	srv.AddTransport(transport.POST{})

	res := execute(t, srv, ctx, `{ __type(name: "IOC") { name } }`, nil)
	gt.Array(t, res.Errors).Length(1)
	gt.Value(t, res.Errors[0].Message).Equal("introspection disabled")
	gt.Value(t, res.Data["__type"]).Nil()
}

func TestInvalidQuery(t *testing.T) {
	h, ctx := setup(t)

	res := execute(t, h, ctx, `{ iocs(caseId: 1) { nosuchfield } }`, nil)
	gt.Array(t, res.Errors).Length(1)
	gt.Value(t, res.Errors[0].Extensions["code"]).Equal("GRAPHQL_VALIDATION_FAILED")
	gt.Bool(t, res.Data == nil).True()
}

func TestServeHTTP(t *testing.T) {
	h, ctx := setup(t)

	t.Run("POST", func(t *testing.T) {
		body, err := json.Marshal(map[string]any{"query": `{ case(id: 1) { name } }`})
		gt.NoError(t, err).Required()

		w := post(t, h, ctx, body)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		var res result
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &res)).Required()
		gt.Value(t, res.Data["case"].(map[string]any)["name"]).Equal("Initial Demo")
	})

	t.Run("GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/graphql?query=%7B+tlps+%7B+name+%7D+%7D", nil).WithContext(ctx)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		gt.Value(t, w.Code).Equal(http.StatusOK)

		var res result
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &res)).Required()
		gt.Array(t, res.Data["tlps"].([]any)).Length(4)
	})

	t.Run("repeated query is served from the parsed query cache", func(t *testing.T) {
		for range 2 {
			res := execute(t, h, ctx, `{ alertStatuses { name } }`, nil)
			gt.Array(t, res.Errors).Length(0)
			gt.Bool(t, len(res.Data["alertStatuses"].([]any)) > 0).True()
		}
	})

	t.Run("resolver errors keep status 200", func(t *testing.T) {
		body, err := json.Marshal(map[string]any{"query": `{ iocs(caseId: 5) { total } }`})
		gt.NoError(t, err).Required()

		w := post(t, h, ctx, body)
		gt.Value(t, w.Code).Equal(http.StatusOK)
	})

	t.Run("validation failure", func(t *testing.T) {
		body, err := json.Marshal(map[string]any{"query": `{ nope }`})
		gt.NoError(t, err).Required()

		w := post(t, h, ctx, body)
		gt.Value(t, w.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := post(t, h, ctx, []byte("{"))
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader([]byte(`{"query":"{ tlps { name } }"}`))).WithContext(ctx)
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})
}

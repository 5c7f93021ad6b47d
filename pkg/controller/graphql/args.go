package graphql

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

var errArgument = goerr.New("invalid argument")

// toInt64 accepts the forms an Int or ID argument arrives in: literals, JSON variables and
// numeric strings
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func idArg(args map[string]any, name string) (int64, error) {
	id, ok := toInt64(args[name])
	if !ok {
		return 0, goerr.Wrap(errArgument, "not an ID", goerr.V("arg", name), goerr.V("value", args[name]))
	}
	return id, nil
}

func optInt(args map[string]any, name string) (*int64, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	v, ok := toInt64(raw)
	if !ok {
		return nil, goerr.Wrap(query.ErrFiltering, "not an integer", goerr.V("arg", name), goerr.V("value", raw))
	}
	return &v, nil
}

func optString(args map[string]any, name string) *string {
	s, ok := args[name].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func optTime(args map[string]any, name string) (*time.Time, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, goerr.Wrap(query.ErrFiltering, "not a timestamp", goerr.V("arg", name), goerr.V("value", raw))
	}
	t, err := model.ParseTime(s)
	if err != nil {
		return nil, goerr.Wrap(query.ErrFiltering, "not a timestamp", goerr.V("arg", name), goerr.V("value", s))
	}
	return &t, nil
}

// listArgs reads page, perPage, orderBy and sortDir
func listArgs(args map[string]any) (usecase.ListRequest, error) {
	req := usecase.DefaultListRequest()
	if s, ok := args["orderBy"].(string); ok {
		req.OrderBy = s
	}
	if s, ok := args["sortDir"].(string); ok {
		req.SortDir = s
	}

	page, err := optInt(args, "page")
	if err != nil {
		return req, err
	}
	if page != nil {
		req.Page = int(*page)
	}
	perPage, err := optInt(args, "perPage")
	if err != nil {
		return req, err
	}
	if perPage != nil {
		req.PerPage = int(*perPage)
	}
	return req, nil
}

func iocFilterArg(args map[string]any) (model.IOCFilter, error) {
	var f model.IOCFilter
	in, _ := args["filter"].(map[string]any)
	if in == nil {
		return f, nil
	}

	var err error
	if f.TypeID, err = optInt(in, "typeId"); err != nil {
		return f, err
	}
	if f.TLPID, err = optInt(in, "tlpId"); err != nil {
		return f, err
	}
	f.TypeName = optString(in, "type")
	f.Value = optString(in, "value")
	f.Description = optString(in, "description")
	f.Tags = optString(in, "tags")
	return f, nil
}

func alertFilterArg(args map[string]any) (model.AlertFilter, error) {
	var f model.AlertFilter
	in, _ := args["filter"].(map[string]any)
	if in == nil {
		return f, nil
	}

	var err error
	if f.StartDate, err = optTime(in, "startDate"); err != nil {
		return f, err
	}
	if f.EndDate, err = optTime(in, "endDate"); err != nil {
		return f, err
	}
	if f.StatusID, err = optInt(in, "statusId"); err != nil {
		return f, err
	}
	if f.SeverityID, err = optInt(in, "severityId"); err != nil {
		return f, err
	}
	if f.OwnerID, err = optInt(in, "ownerId"); err != nil {
		return f, err
	}
	f.Title = optString(in, "title")
	f.Description = optString(in, "description")
	f.Source = optString(in, "source")
	return f, nil
}

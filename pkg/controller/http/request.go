package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

const maxBodySize = 16 << 20

// decodeBody reads a JSON object. Numbers are kept as json.Number so integer fields survive
// schema conversion exactly.
func decodeBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		return nil, model.ValidationError(usecase.MsgDataError, model.FieldErrors{
			{Field: "_schema", Message: "Invalid input type."},
		})
	}
	return body, nil
}

// pathID parses an integer path parameter. A malformed id resolves nothing.
func pathID(r *http.Request, name, notFoundMsg string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, model.NotFoundError(notFoundMsg, nil)
	}
	return id, nil
}

func filteringError(param, value string) error {
	return goerr.Wrap(query.ErrFiltering, "invalid query parameter", goerr.V("param", param), goerr.V("value", value))
}

func queryInt(q url.Values, name string) (*int64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, filteringError(name, raw)
	}
	return &v, nil
}

func queryString(q url.Values, name string) *string {
	if !q.Has(name) || q.Get(name) == "" {
		return nil
	}
	v := q.Get(name)
	return &v
}

func queryTime(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := model.ParseTime(raw)
	if err != nil {
		return nil, filteringError(name, raw)
	}
	return &t, nil
}

// listRequest reads page, per_page, order_by and sort_dir
func listRequest(q url.Values) (usecase.ListRequest, error) {
	req := usecase.DefaultListRequest()
	req.OrderBy = q.Get("order_by")
	req.SortDir = q.Get("sort_dir")

	if page, err := queryInt(q, "page"); err != nil {
		return req, err
	} else if page != nil {
		req.Page = int(*page)
	}
	if perPage, err := queryInt(q, "per_page"); err != nil {
		return req, err
	} else if perPage != nil {
		req.PerPage = int(*perPage)
	}
	return req, nil
}

func iocFilter(q url.Values) (model.IOCFilter, error) {
	var f model.IOCFilter
	var err error

	if f.TypeID, err = queryInt(q, "ioc_type_id"); err != nil {
		return f, err
	}
	if f.TLPID, err = queryInt(q, "ioc_tlp_id"); err != nil {
		return f, err
	}
	f.TypeName = queryString(q, "ioc_type")
	f.Value = queryString(q, "ioc_value")
	f.Description = queryString(q, "ioc_description")
	f.Tags = queryString(q, "ioc_tags")
	return f, nil
}

func alertFilter(q url.Values) (model.AlertFilter, error) {
	var f model.AlertFilter
	var err error

	if f.StartDate, err = queryTime(q, "alert_start_date"); err != nil {
		return f, err
	}
	if f.EndDate, err = queryTime(q, "alert_end_date"); err != nil {
		return f, err
	}
	if f.StatusID, err = queryInt(q, "alert_status_id"); err != nil {
		return f, err
	}
	if f.SeverityID, err = queryInt(q, "alert_severity_id"); err != nil {
		return f, err
	}
	if f.OwnerID, err = queryInt(q, "alert_owner_id"); err != nil {
		return f, err
	}
	f.Title = queryString(q, "alert_title")
	f.Description = queryString(q, "alert_description")
	f.Source = queryString(q, "alert_source")
	return f, nil
}

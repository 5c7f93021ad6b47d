package usecase

import (
	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

// ListRequest carries the paging and ordering parameters of a listing call
type ListRequest struct {
	Page    int
	PerPage int
	OrderBy string
	SortDir string
}

// DefaultListRequest is the first page with the default page size
func DefaultListRequest() ListRequest {
	return ListRequest{Page: query.DefaultPage, PerPage: query.DefaultPerPage}
}

// build validates the request against the sortable fields of a collection. Every failure wraps
// query.ErrFiltering.
func (r ListRequest) build(where query.Predicate, fields map[string]string, defaultField string) (query.Query, error) {
	sort, err := query.NewSort(r.OrderBy, r.SortDir, fields, defaultField)
	if err != nil {
		return query.Query{}, err
	}

	pg := query.Pagination{Page: r.Page, PerPage: r.PerPage}
	if err := pg.Validate(); err != nil {
		return query.Query{}, err
	}

	return query.Query{Where: where, Sort: sort, Pagination: pg}, nil
}

package query

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Pagination selects one page of a result set. Pages are 1-based.
type Pagination struct {
	Page    int
	PerPage int
}

// DefaultPagination returns the first page with the default page size
func DefaultPagination() Pagination {
	return Pagination{Page: DefaultPage, PerPage: DefaultPerPage}
}

// OrDefault returns the default pagination when p is unset
func (p Pagination) OrDefault() Pagination {
	if p == (Pagination{}) {
		return DefaultPagination()
	}
	return p
}

// Validate checks that page and page size are at least 1
func (p Pagination) Validate() error {
	if p.Page < 1 {
		return goerr.Wrap(ErrFiltering, "page must be greater than 0", goerr.V("page", p.Page))
	}
	if p.PerPage < 1 {
		return goerr.Wrap(ErrFiltering, "per_page must be greater than 0", goerr.V("per_page", p.PerPage))
	}
	return nil
}

// Offset returns the number of records preceding the page. It saturates at math.MaxInt.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.PerPage <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PerPage
}

// LastPage returns the number of pages needed for total records
func (p Pagination) LastPage(total int) int {
	if p.PerPage <= 0 || total <= 0 {
		return 0
	}
	last := total / p.PerPage
	if total%p.PerPage != 0 {
		last++
	}
	return last
}

// Beyond reports whether the page starts after the last of total records
func (p Pagination) Beyond(total int) bool {
	return p.Page > p.LastPage(total)
}

// Page is one page of a filtered and sorted result set
type Page[T any] struct {
	Items       []T
	Total       int
	CurrentPage int
	PerPage     int
	LastPage    int
	// NextPage is nil on the last page
	NextPage *int
}

// NewPage builds page metadata for items already cut to the requested page
func NewPage[T any](items []T, total int, p Pagination) *Page[T] {
	if items == nil {
		items = []T{}
	}

	last := p.LastPage(total)

	page := &Page[T]{
		Items:       items,
		Total:       total,
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		LastPage:    last,
	}
	if p.Page < last {
		next := p.Page + 1
		page.NextPage = &next
	}
	return page
}

// Slice cuts the requested page out of a fully materialized result set
func Slice[T any](all []T, p Pagination) *Page[T] {
	total := len(all)
	if p.Beyond(total) {
		return NewPage([]T{}, total, p)
	}

	start := p.Offset()
	end := start + min(p.PerPage, total-start)

	items := make([]T, end-start)
	copy(items, all[start:end])
	return NewPage(items, total, p)
}

// Map converts the items of a page keeping its metadata
func Map[T, U any](src *Page[T], f func(T) U) *Page[U] {
	items := make([]U, len(src.Items))
	for i, item := range src.Items {
		items[i] = f(item)
	}
	return &Page[U]{
		Items:       items,
		Total:       src.Total,
		CurrentPage: src.CurrentPage,
		PerPage:     src.PerPage,
		LastPage:    src.LastPage,
		NextPage:    src.NextPage,
	}
}

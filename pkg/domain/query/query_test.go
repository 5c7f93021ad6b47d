package query_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

type row struct {
	id      int64
	title   string
	status  int64
	owner   *int64
	created time.Time
}

func (r row) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return r.id, true
	case "title":
		return r.title, true
	case "status":
		return r.status, true
	case "owner":
		if r.owner == nil {
			return nil, false
		}
		return *r.owner, true
	case "created":
		return r.created, true
	}
	return nil, false
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fixture(n int) []row {
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{
			id:      int64(i + 1),
			title:   fmt.Sprintf("Alert %02d", i+1),
			status:  int64(i%3 + 1),
			created: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return rows
}

func TestAnd(t *testing.T) {
	t.Run("empty conjunction is all", func(t *testing.T) {
		gt.Bool(t, query.And().IsAll()).True()
		gt.Bool(t, query.And(query.All(), query.All()).IsAll()).True()
	})

	t.Run("nothing collapses the conjunction", func(t *testing.T) {
		p := query.And(query.Eq("status", 1), query.Nothing())
		gt.Value(t, p.Kind).Equal(query.KindNothing)
	})

	t.Run("nested conjunctions are flattened", func(t *testing.T) {
		p := query.And(query.Eq("status", 1), query.And(query.Contains("title", "a"), query.Eq("id", 2)))
		gt.Value(t, p.Kind).Equal(query.KindAnd)
		gt.Array(t, p.Terms).Length(3)
		gt.Array(t, p.Conjuncts()).Length(3)
	})

	t.Run("single term is returned as is", func(t *testing.T) {
		p := query.And(query.All(), query.Eq("status", 2))
		gt.Value(t, p.Kind).Equal(query.KindEq)
		gt.Value(t, p.Value).Equal(any(int64(2)))
	})
}

func TestPredicate_Match(t *testing.T) {
	owner := int64(7)
	r := row{id: 1, title: "Suspicious LOGIN", status: 2, owner: &owner, created: base}

	tests := []struct {
		name string
		pred query.Predicate
		want bool
	}{
		{name: "all", pred: query.All(), want: true},
		{name: "nothing", pred: query.Nothing(), want: false},
		{name: "eq int", pred: query.Eq("status", 2), want: true},
		{name: "eq mismatch", pred: query.Eq("status", 3), want: false},
		{name: "eq pointer owner", pred: query.Eq("owner", &owner), want: true},
		{name: "contains ignores case", pred: query.Contains("title", "login"), want: true},
		{name: "contains mismatch", pred: query.Contains("title", "logout"), want: false},
		{name: "between inclusive lower", pred: query.Between("created", base, base.Add(time.Hour)), want: true},
		{name: "between inclusive upper", pred: query.Between("created", base.Add(-time.Hour), base), want: true},
		{name: "between outside", pred: query.Between("created", base.Add(time.Second), base.Add(time.Hour)), want: false},
		{name: "missing field", pred: query.Eq("severity", 1), want: false},
		{name: "and", pred: query.And(query.Eq("status", 2), query.Contains("title", "sus")), want: true},
		{name: "and with failing term", pred: query.And(query.Eq("status", 2), query.Contains("title", "zzz")), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want {
				gt.Bool(t, tt.pred.Match(r)).True()
			} else {
				gt.Bool(t, tt.pred.Match(r)).False()
			}
		})
	}
}

func TestNewSort(t *testing.T) {
	fields := map[string]string{"alert_title": "title", "alert_id": "id"}

	t.Run("defaults", func(t *testing.T) {
		s, err := query.NewSort("", "", fields, "id")
		gt.NoError(t, err).Required()
		gt.Value(t, s).Equal(query.Sort{Field: "id", Direction: types.SortAsc})
	})

	t.Run("known field", func(t *testing.T) {
		s, err := query.NewSort("alert_title", "desc", fields, "id")
		gt.NoError(t, err).Required()
		gt.Value(t, s).Equal(query.Sort{Field: "title", Direction: types.SortDesc})
	})

	t.Run("unknown field is a filtering error", func(t *testing.T) {
		_, err := query.NewSort("password", "asc", fields, "id")
		gt.Error(t, err).Is(query.ErrFiltering)
	})

	t.Run("unknown direction is a filtering error", func(t *testing.T) {
		_, err := query.NewSort("alert_id", "up", fields, "id")
		gt.Error(t, err).Is(query.ErrFiltering)
	})
}

func TestApply(t *testing.T) {
	rows := fixture(25)

	t.Run("absent criteria return the unfiltered set", func(t *testing.T) {
		page := query.Apply(rows, query.Query{
			Where:      query.And(),
			Sort:       query.Sort{Field: "id", Direction: types.SortAsc},
			Pagination: query.Pagination{Page: 1, PerPage: 100},
		})
		gt.Number(t, page.Total).Equal(len(rows))
		gt.Array(t, page.Items).Length(len(rows))
	})

	t.Run("date range keeps records within bounds", func(t *testing.T) {
		from, to := base.Add(2*time.Hour), base.Add(5*time.Hour)
		page := query.Apply(rows, query.Query{
			Where:      query.And(query.Between("created", from, to)),
			Pagination: query.Pagination{Page: 1, PerPage: 100},
		})
		gt.Number(t, page.Total).Equal(4)
		for _, r := range page.Items {
			gt.Bool(t, r.created.Before(from) || r.created.After(to)).False()
		}
	})

	t.Run("consecutive pages are disjoint", func(t *testing.T) {
		q := query.Query{
			Where: query.All(),
			Sort:  query.Sort{Field: "id", Direction: types.SortDesc},
		}
		q.Pagination = query.Pagination{Page: 1, PerPage: 10}
		p1 := query.Apply(rows, q)
		q.Pagination = query.Pagination{Page: 2, PerPage: 10}
		p2 := query.Apply(rows, q)

		seen := map[int64]bool{}
		for _, r := range p1.Items {
			seen[r.id] = true
		}
		for _, r := range p2.Items {
			gt.Bool(t, seen[r.id]).False()
		}
		gt.Value(t, p1.Items[0].id).Equal(int64(25))
		gt.Value(t, *p1.NextPage).Equal(2)
	})

	t.Run("last page metadata", func(t *testing.T) {
		page := query.Apply(rows, query.Query{
			Where:      query.All(),
			Pagination: query.Pagination{Page: 3, PerPage: 10},
		})
		gt.Array(t, page.Items).Length(5)
		gt.Number(t, page.LastPage).Equal(3)
		gt.Value(t, page.NextPage).Nil()
	})

	t.Run("page beyond last returns empty items with metadata", func(t *testing.T) {
		page := query.Apply(rows, query.Query{
			Where:      query.All(),
			Pagination: query.Pagination{Page: 9, PerPage: 10},
		})
		gt.Array(t, page.Items).Length(0)
		gt.Number(t, page.Total).Equal(25)
		gt.Number(t, page.LastPage).Equal(3)
		gt.Number(t, page.CurrentPage).Equal(9)
		gt.Value(t, page.NextPage).Nil()
	})
}

func TestPagination_Validate(t *testing.T) {
	gt.NoError(t, query.DefaultPagination().Validate())
	gt.Error(t, query.Pagination{Page: 0, PerPage: 10}.Validate()).Is(query.ErrFiltering)
	gt.Error(t, query.Pagination{Page: 1, PerPage: 0}.Validate()).Is(query.ErrFiltering)
	gt.Number(t, query.Pagination{Page: 3, PerPage: 20}.Offset()).Equal(40)
}

func TestApply_LargePagination(t *testing.T) {
	rows := fixture(3)

	t.Run("huge page number is past the end", func(t *testing.T) {
		page := query.Apply(rows, query.Query{
			Where:      query.All(),
			Pagination: query.Pagination{Page: math.MaxInt / 5, PerPage: 10},
		})
		gt.Array(t, page.Items).Length(0)
		gt.Number(t, page.Total).Equal(3)
		gt.Number(t, page.LastPage).Equal(1)
		gt.Value(t, page.NextPage).Nil()
	})

	t.Run("huge page size fits every record on one page", func(t *testing.T) {
		page := query.Apply(rows, query.Query{
			Where:      query.All(),
			Pagination: query.Pagination{Page: 1, PerPage: math.MaxInt},
		})
		gt.Array(t, page.Items).Length(3)
		gt.Number(t, page.LastPage).Equal(1)
		gt.Value(t, page.NextPage).Nil()
	})

	t.Run("huge page and page size", func(t *testing.T) {
		page := query.Apply(rows, query.Query{
			Where:      query.All(),
			Pagination: query.Pagination{Page: math.MaxInt, PerPage: math.MaxInt},
		})
		gt.Array(t, page.Items).Length(0)
		gt.Number(t, page.LastPage).Equal(1)
	})
}

func TestPagination_Offset(t *testing.T) {
	gt.Number(t, query.Pagination{Page: 1, PerPage: 10}.Offset()).Equal(0)
	gt.Number(t, query.Pagination{Page: math.MaxInt / 5, PerPage: 10}.Offset()).Equal(math.MaxInt)
	gt.Number(t, query.Pagination{Page: 2, PerPage: math.MaxInt}.Offset()).Equal(math.MaxInt)
}

func TestPagination_LastPage(t *testing.T) {
	p := query.Pagination{Page: 1, PerPage: 10}
	gt.Number(t, p.LastPage(0)).Equal(0)
	gt.Number(t, p.LastPage(10)).Equal(1)
	gt.Number(t, p.LastPage(11)).Equal(2)
	gt.Number(t, query.Pagination{Page: 1, PerPage: math.MaxInt}.LastPage(math.MaxInt)).Equal(1)
	gt.Bool(t, p.Beyond(10)).False()
	gt.Bool(t, query.Pagination{Page: 2, PerPage: 10}.Beyond(10)).True()
}

func TestNewPage_Empty(t *testing.T) {
	page := query.NewPage[row](nil, 0, query.DefaultPagination())
	gt.Number(t, page.LastPage).Equal(0)
	gt.Value(t, page.NextPage).Nil()
	gt.Value(t, page.Items).NotNil()
}

package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

func ptr[T any](v T) *T { return &v }

func TestNormalizeTags(t *testing.T) {
	once := model.NormalizeTags("a|b|c")
	gt.Value(t, once).Equal("a,b,c")
	gt.Value(t, model.NormalizeTags(once)).Equal(once)
	gt.Value(t, model.NormalizeTags("")).Equal("")
}

func TestIOCFilter_Predicate(t *testing.T) {
	c := model.DefaultCatalog()
	iocs := []*model.IOC{
		{ID: 1, Value: "8.8.8.8", TypeID: 1, TLPID: 2, Description: "Google DNS", Tags: "dns,public"},
		{ID: 2, Value: "evil.example", TypeID: 2, TLPID: 1, Description: "C2 domain", Tags: "c2"},
		{ID: 3, Value: "10.0.0.8", TypeID: 1, TLPID: 1, Description: "internal host", Tags: ""},
	}

	match := func(f model.IOCFilter) []int64 {
		page := query.Apply(iocs, query.Query{
			Where:      f.Predicate(c),
			Sort:       query.Sort{Field: model.IOCFieldID},
			Pagination: query.Pagination{Page: 1, PerPage: 10},
		})
		ids := make([]int64, len(page.Items))
		for i, ioc := range page.Items {
			ids[i] = ioc.ID
		}
		return ids
	}

	gt.Value(t, match(model.IOCFilter{})).Equal([]int64{1, 2, 3})
	gt.Value(t, match(model.IOCFilter{TypeID: ptr(int64(1))})).Equal([]int64{1, 3})
	gt.Value(t, match(model.IOCFilter{TypeName: ptr("domain")})).Equal([]int64{2})
	gt.Value(t, match(model.IOCFilter{TypeName: ptr("nope")})).Equal([]int64{})
	gt.Value(t, match(model.IOCFilter{TLPID: ptr(int64(1)), Value: ptr(".8")})).Equal([]int64{3})
	gt.Value(t, match(model.IOCFilter{Description: ptr("DNS")})).Equal([]int64{1})
	gt.Value(t, match(model.IOCFilter{Tags: ptr("C2")})).Equal([]int64{2})
}

func TestAlertFilter_Predicate(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	alerts := []*model.Alert{
		{ID: 1, Title: "Brute force", StatusID: 2, SeverityID: 5, OwnerID: ptr(int64(1)), CreationTime: base},
		{ID: 2, Title: "Malware detected", StatusID: 2, SeverityID: 6, CreationTime: base.Add(24 * time.Hour)},
		{ID: 3, Title: "brute force again", StatusID: 3, SeverityID: 5, CreationTime: base.Add(48 * time.Hour)},
	}

	count := func(f model.AlertFilter) int {
		return query.Apply(alerts, query.Query{Where: f.Predicate(), Pagination: query.DefaultPagination()}).Total
	}

	gt.Number(t, count(model.AlertFilter{})).Equal(3)
	gt.Number(t, count(model.AlertFilter{Title: ptr("BRUTE")})).Equal(2)
	gt.Number(t, count(model.AlertFilter{StatusID: ptr(int64(2)), SeverityID: ptr(int64(5))})).Equal(1)
	gt.Number(t, count(model.AlertFilter{OwnerID: ptr(int64(1))})).Equal(1)

	// a single bound applies no date filter
	gt.Number(t, count(model.AlertFilter{StartDate: ptr(base.Add(time.Hour))})).Equal(3)
	gt.Number(t, count(model.AlertFilter{StartDate: ptr(base), EndDate: ptr(base.Add(24 * time.Hour))})).Equal(2)
}

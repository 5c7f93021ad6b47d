package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

func alertInput(title string, status, severity int64, created string) map[string]any {
	return map[string]any{
		"alert_title":         title,
		"alert_description":   "raised by " + title,
		"alert_source":        "edr",
		"alert_status_id":     status,
		"alert_severity_id":   severity,
		"alert_creation_time": created,
	}
}

func TestAlertUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an alert", func(t *testing.T) {
		f := newFixture(t)
		var hooked bool
		gt.NoError(t, f.hooks.Register(types.HookPostloadAlertCreate, func(_ context.Context, data any, _ int64) (any, error) {
			hooked = true
			return data, nil
		}))

		input := alertInput("Suspicious login", 2, 4, "2024-03-01T10:00:00Z")
		input["alert_owner_id"] = 3
		alert, msg, err := f.uc.Alert.Create(ctx, input)
		gt.NoError(t, err).Required()
		gt.Value(t, msg).Equal(usecase.MsgAlertAdded)
		gt.Value(t, *alert.OwnerID).Equal(int64(3))
		gt.Bool(t, hooked).True()

		got, err := f.uc.Alert.Get(ctx, alert.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Suspicious login")
		gt.Value(t, got.CreationTime.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))).Equal(true)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.uc.Alert.Create(ctx, alertInput("x", 99, 1, "2024-03-01"))
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindLookup)
		be, _ := model.AsBusinessError(err)
		gt.Value(t, be.Message()).Equal(usecase.MsgInvalidStatus)
	})

	t.Run("unknown severity", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.uc.Alert.Create(ctx, alertInput("x", 1, 99, "2024-03-01"))
		be, _ := model.AsBusinessError(err)
		gt.Value(t, be.Message()).Equal(usecase.MsgInvalidSeverity)
	})

	t.Run("title is required", func(t *testing.T) {
		f := newFixture(t)
		input := alertInput("", 1, 1, "2024-03-01")
		delete(input, "alert_title")
		_, _, err := f.uc.Alert.Create(ctx, input)
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindValidation)
	})

	t.Run("unknown alert", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Alert.Get(ctx, 42)
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindNotFound)
	})
}

func TestAlertUseCase_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, in := range []map[string]any{
		alertInput("Phishing mail", 2, 3, "2024-01-10T00:00:00Z"),
		alertInput("Malware beacon", 3, 5, "2024-02-10T00:00:00Z"),
		alertInput("Phishing link clicked", 2, 5, "2024-03-10T00:00:00Z"),
	} {
		_, _, err := f.uc.Alert.Create(ctx, in)
		gt.NoError(t, err).Required()
	}

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name   string
		filter model.AlertFilter
		titles []string
	}{
		{"no filter", model.AlertFilter{}, []string{"Phishing mail", "Malware beacon", "Phishing link clicked"}},
		{"title substring", model.AlertFilter{Title: ptr("phishing")}, []string{"Phishing mail", "Phishing link clicked"}},
		{"status and severity", model.AlertFilter{StatusID: ptr(int64(2)), SeverityID: ptr(int64(5))}, []string{"Phishing link clicked"}},
		{"date range", model.AlertFilter{StartDate: &start, EndDate: &end}, []string{"Malware beacon", "Phishing link clicked"}},
		{"single date bound is ignored", model.AlertFilter{StartDate: &start}, []string{"Phishing mail", "Malware beacon", "Phishing link clicked"}},
		{"owner", model.AlertFilter{OwnerID: ptr(int64(1))}, []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := f.uc.Alert.List(ctx, tc.filter, usecase.DefaultListRequest())
			gt.NoError(t, err).Required()

			titles := []string{}
			for _, a := range page.Items {
				titles = append(titles, a.Title)
			}
			gt.Value(t, titles).Equal(tc.titles)
			gt.Value(t, page.Total).Equal(len(tc.titles))
		})
	}

	t.Run("order by severity descending", func(t *testing.T) {
		req := usecase.ListRequest{Page: 1, PerPage: 1, OrderBy: "alert_severity_id", SortDir: "desc"}
		page, err := f.uc.Alert.List(ctx, model.AlertFilter{}, req)
		gt.NoError(t, err).Required()
		gt.Array(t, page.Items).Length(1)
		gt.Value(t, page.Items[0].SeverityID).Equal(int64(5))
		gt.Value(t, page.LastPage).Equal(3)
	})

	t.Run("invalid sort direction", func(t *testing.T) {
		req := usecase.DefaultListRequest()
		req.SortDir = "sideways"
		_, err := f.uc.Alert.List(ctx, model.AlertFilter{}, req)
		gt.Error(t, err).Is(query.ErrFiltering)
	})
}

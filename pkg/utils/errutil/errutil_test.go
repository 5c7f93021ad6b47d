package errutil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	gt.NoError(t, errutil.Handle(context.Background(), nil, "nothing"))

	orig := goerr.New("boom", goerr.V("case_id", 1))
	err := errutil.Handle(context.Background(), orig, "failed")
	gt.Error(t, err).Is(orig)
}

func TestHandleHTTP(t *testing.T) {
	w := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), w, goerr.New("broken pipe"), http.StatusInternalServerError)

	gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
	gt.String(t, w.Body.String()).Contains("broken pipe")
}

func TestHandle_ReportsToSentry(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	gt.NoError(t, err).Required()

	hub := sentry.CurrentHub()
	prev := hub.Client()
	hub.BindClient(client)
	t.Cleanup(func() { hub.BindClient(prev) })

	_ = errutil.Handle(context.Background(), goerr.New("boom", goerr.V("case_id", 7)), "failed")

	gt.Array(t, events).Length(1).Required()
	values := events[0].Contexts[errutil.SentryContextKey]
	gt.Value(t, values["case_id"]).Equal(any(7))
}

package slack_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/service/slack"
	"github.com/secmon-lab/caseflow/pkg/utils/async"
)

type slackAPI struct {
	mu       sync.Mutex
	channels []string
	texts    []string
}

func (s *slackAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/chat.postMessage" {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.channels = append(s.channels, r.PostForm.Get("channel"))
	s.texts = append(s.texts, r.PostForm.Get("text"))
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000000.000100"}`))
}

func setup(t *testing.T) (*slack.Notifier, *slackAPI) {
	t.Helper()
	api := &slackAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	n, err := slack.New("xoxb-test", "#dfir", model.DefaultCatalog(), slack.WithAPIURL(srv.URL+"/"))
	gt.NoError(t, err).Required()
	return n, api
}

func TestNew(t *testing.T) {
	_, err := slack.New("", "#dfir", nil)
	gt.Error(t, err).Is(slack.ErrEmptyToken)

	_, err = slack.New("xoxb-test", "", nil)
	gt.Error(t, err).Is(slack.ErrEmptyChannel)
}

func TestNotifier_IOCCreated(t *testing.T) {
	ctx := context.Background()
	n, api := setup(t)

	ioc := &model.IOC{ID: 4, Value: "evil.example.com", TypeID: 2, TLPID: 1}
	out, err := n.IOCCreated(ctx, ioc, 7)
	gt.NoError(t, err).Required()
	gt.Value(t, out).Equal(any(ioc))
	gt.NoError(t, async.Wait(ctx)).Required()

	gt.Array(t, api.texts).Length(1)
	gt.Value(t, api.channels[0]).Equal("#dfir")
	gt.Value(t, api.texts[0]).Equal("New IOC on case #7: `evil.example.com` (domain, TLP:red)")
}

func TestNotifier_AlertCreated(t *testing.T) {
	ctx := context.Background()
	n, api := setup(t)

	_, err := n.AlertCreated(ctx, &model.Alert{ID: 2, Title: "Beaconing host", SeverityID: 5, Source: "edr"}, 0)
	gt.NoError(t, err).Required()
	gt.NoError(t, async.Wait(ctx)).Required()

	gt.Array(t, api.texts).Length(1)
	gt.Value(t, api.texts[0]).Equal("New alert #2 [High] Beaconing host (source: edr)")
}

func TestNotifier_IgnoresOtherData(t *testing.T) {
	ctx := context.Background()
	n, api := setup(t)

	out, err := n.IOCCreated(ctx, "not an ioc", 1)
	gt.NoError(t, err).Required()
	gt.Value(t, out).Equal(any("not an ioc"))
	gt.NoError(t, async.Wait(ctx)).Required()
	gt.Array(t, api.texts).Length(0)
}

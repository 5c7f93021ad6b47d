// Package slack posts case activity to a Slack channel.
package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/utils/async"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/slack-go/slack"
)

var (
	ErrEmptyToken   = goerr.New("Slack bot token is required")
	ErrEmptyChannel = goerr.New("Slack channel is required")
)

// Notifier announces new IOCs and alerts. Its methods match the hook signature and return the
// data unchanged; messages are posted in the background.
type Notifier struct {
	api     *slack.Client
	channel string
	catalog *model.Catalog
}

// Option is a functional option for notifier configuration
type Option func(*notifierOptions)

type notifierOptions struct {
	slackOpts []slack.Option
}

// WithAPIURL points the client at another Slack API endpoint. The URL must end with a slash.
func WithAPIURL(url string) Option {
	return func(o *notifierOptions) {
		o.slackOpts = append(o.slackOpts, slack.OptionAPIURL(url))
	}
}

func New(token, channel string, catalog *model.Catalog, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	if channel == "" {
		return nil, ErrEmptyChannel
	}
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}

	var o notifierOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &Notifier{
		api:     slack.New(token, o.slackOpts...),
		channel: channel,
		catalog: catalog,
	}, nil
}

// IOCCreated announces an IOC added to a case
func (n *Notifier) IOCCreated(ctx context.Context, data any, caseID int64) (any, error) {
	ioc, ok := data.(*model.IOC)
	if !ok {
		return data, nil
	}

	typeName := fmt.Sprintf("type %d", ioc.TypeID)
	if t, ok := n.catalog.IOCTypeByID(ioc.TypeID); ok {
		typeName = t.Name
	}
	tlpName := fmt.Sprintf("%d", ioc.TLPID)
	if tlp, ok := n.catalog.TLPByID(ioc.TLPID); ok {
		tlpName = tlp.Name
	}

	n.post(ctx, fmt.Sprintf("New IOC on case #%d: `%s` (%s, TLP:%s)", caseID, ioc.Value, typeName, tlpName))
	return data, nil
}

// AlertCreated announces a new alert
func (n *Notifier) AlertCreated(ctx context.Context, data any, _ int64) (any, error) {
	alert, ok := data.(*model.Alert)
	if !ok {
		return data, nil
	}

	severity := "Unspecified"
	if s, ok := n.catalog.AlertSeverityByID(alert.SeverityID); ok {
		severity = s.Name
	}

	text := fmt.Sprintf("New alert #%d [%s] %s", alert.ID, severity, alert.Title)
	if alert.Source != "" {
		text += fmt.Sprintf(" (source: %s)", alert.Source)
	}
	n.post(ctx, text)
	return data, nil
}

func (n *Notifier) post(ctx context.Context, text string) {
	async.Dispatch(ctx, func(ctx context.Context) error {
		_, ts, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
		if err != nil {
			return goerr.Wrap(err, "failed to post Slack message", goerr.V("channel", n.channel))
		}
		logging.From(ctx).Debug("posted Slack message", "channel", n.channel, "ts", ts)
		return nil
	})
}

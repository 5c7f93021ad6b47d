package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"github.com/secmon-lab/caseflow/pkg/service/slack"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Slack holds the notification flags. Notifications stay off without a bot token.
type Slack struct {
	botToken string
	channel  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for IOC and alert notifications",
			Category:    "Slack",
			Sources:     cli.EnvVars("CASEFLOW_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID or name notifications are posted to",
			Category:    "Slack",
			Sources:     cli.EnvVars("CASEFLOW_SLACK_CHANNEL"),
			Destination: &x.channel,
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot_token.len", len(x.botToken)),
		slog.String("channel", x.channel),
	)
}

// Configure registers the notifier on the postload hooks of IOC and alert creation
func (x *Slack) Configure(hooks *usecase.HookRegistry, catalog *model.Catalog) error {
	if x.botToken == "" {
		return nil
	}

	notifier, err := slack.New(x.botToken, x.channel, catalog)
	if err != nil {
		return goerr.Wrap(err, "failed to configure Slack notifier", goerr.V(FlagKey, "slack-channel"))
	}
	if err := hooks.Register(types.HookPostloadIOCCreate, notifier.IOCCreated); err != nil {
		return err
	}
	if err := hooks.Register(types.HookPostloadAlertCreate, notifier.AlertCreated); err != nil {
		return err
	}

	logging.Default().Info("Slack notifications enabled", "channel", x.channel)
	return nil
}

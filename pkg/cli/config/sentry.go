package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const sentryFlushTimeout = 2 * time.Second

// Sentry holds the error reporting flags. Reporting stays off without a DSN.
type Sentry struct {
	dsn string
	env string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Category:    "Sentry",
			Sources:     cli.EnvVars("CASEFLOW_SENTRY_DSN"),
			Destination: &x.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Category:    "Sentry",
			Sources:     cli.EnvVars("CASEFLOW_SENTRY_ENV"),
			Destination: &x.env,
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("dsn.len", len(x.dsn)),
		slog.String("env", x.env),
	)
}

// Enabled reports whether a DSN is configured
func (x *Sentry) Enabled() bool {
	return x.dsn != ""
}

// Configure initializes the Sentry client. The returned function flushes pending events.
func (x *Sentry) Configure(release string) (func(), error) {
	if !x.Enabled() {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.env,
		Release:     release,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry", goerr.V("env", x.env))
	}
	logging.Default().Info("Sentry error reporting enabled", "env", x.env)

	return func() {
		if !sentry.Flush(sentryFlushTimeout) {
			logging.Default().Warn("failed to flush sentry events")
		}
	}, nil
}

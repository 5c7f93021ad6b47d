package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/service/audit"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Audit selects where activity entries go. Without a backend they are only logged.
type Audit struct {
	backend       string
	redisAddr     string
	redisPassword string
	redisDB       int
	stream        string
	maxLen        int
}

func (x *Audit) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "audit-backend",
			Usage:       "Activity tracker backend (none, memory or redis)",
			Category:    "Audit",
			Value:       "none",
			Sources:     cli.EnvVars("CASEFLOW_AUDIT_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "audit-redis-addr",
			Usage:       "Redis address of the activity stream",
			Category:    "Audit",
			Value:       "localhost:6379",
			Sources:     cli.EnvVars("CASEFLOW_AUDIT_REDIS_ADDR"),
			Destination: &x.redisAddr,
		},
		&cli.StringFlag{
			Name:        "audit-redis-password",
			Usage:       "Redis password",
			Category:    "Audit",
			Sources:     cli.EnvVars("CASEFLOW_AUDIT_REDIS_PASSWORD"),
			Destination: &x.redisPassword,
		},
		&cli.IntFlag{
			Name:        "audit-redis-db",
			Usage:       "Redis database number",
			Category:    "Audit",
			Sources:     cli.EnvVars("CASEFLOW_AUDIT_REDIS_DB"),
			Destination: &x.redisDB,
		},
		&cli.StringFlag{
			Name:        "audit-stream",
			Usage:       "Redis stream key of activities",
			Category:    "Audit",
			Value:       audit.DefaultStream,
			Sources:     cli.EnvVars("CASEFLOW_AUDIT_STREAM"),
			Destination: &x.stream,
		},
		&cli.IntFlag{
			Name:        "audit-stream-max-len",
			Usage:       "Approximate cap of the activity stream length (0 keeps every entry)",
			Category:    "Audit",
			Sources:     cli.EnvVars("CASEFLOW_AUDIT_STREAM_MAX_LEN"),
			Destination: &x.maxLen,
		},
	}
}

func (x Audit) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("redis_addr", x.redisAddr),
		slog.Int("redis_password.len", len(x.redisPassword)),
		slog.String("stream", x.stream),
	)
}

// Configure returns the tracker and a function releasing it. The tracker is nil for "none".
func (x *Audit) Configure(ctx context.Context) (interfaces.ActivityTracker, func(), error) {
	switch x.backend {
	case "", "none":
		return nil, func() {}, nil

	case "memory":
		logging.Default().Info("Using in-memory activity tracker")
		return audit.NewMemory(), func() {}, nil

	case "redis":
		tracker := audit.NewRedis(&redis.Options{
			Addr:     x.redisAddr,
			Password: x.redisPassword,
			DB:       x.redisDB,
		}, audit.WithStream(x.stream), audit.WithMaxLen(int64(x.maxLen)))

		if err := tracker.Ping(ctx); err != nil {
			_ = tracker.Close()
			return nil, nil, goerr.Wrap(err, "failed to connect activity stream", goerr.V("addr", x.redisAddr))
		}
		logging.Default().Info("Using Redis activity tracker", "addr", x.redisAddr, "stream", x.stream)

		return tracker, func() {
			if err := tracker.Close(); err != nil {
				logging.Default().Warn("failed to close redis tracker", "error", err)
			}
		}, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "invalid audit backend", goerr.V(BackendKey, x.backend))
	}
}

package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
)

// DefaultStream is the stream key activities are appended to
const DefaultStream = "caseflow:activities"

// Redis appends activities to a Redis stream
type Redis struct {
	client *redis.Client
	stream string
	maxLen int64
}

type RedisOption func(*Redis)

// WithStream overrides the stream key
func WithStream(stream string) RedisOption {
	return func(r *Redis) {
		r.stream = stream
	}
}

// WithMaxLen caps the stream length approximately. Zero keeps every entry.
func WithMaxLen(n int64) RedisOption {
	return func(r *Redis) {
		r.maxLen = n
	}
}

func NewRedis(opts *redis.Options, options ...RedisOption) *Redis {
	r := &Redis{
		client: redis.NewClient(opts),
		stream: DefaultStream,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Ping checks the connection to the server
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return goerr.Wrap(err, "failed to ping redis")
	}
	return nil
}

func (r *Redis) Track(ctx context.Context, activity *model.Activity) error {
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"id":         string(activity.ID),
			"case_id":    strconv.FormatInt(activity.CaseID, 10),
			"user_id":    strconv.FormatInt(activity.UserID, 10),
			"message":    activity.Message,
			"created_at": activity.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return goerr.Wrap(err, "failed to append activity",
			goerr.V("stream", r.stream),
			goerr.V("case_id", activity.CaseID))
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

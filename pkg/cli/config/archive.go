package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/service/archive"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Archive selects the object storage keeping raw bulk upload payloads
type Archive struct {
	backend     string
	bucket      string
	prefix      string
	s3Region    string
	s3Endpoint  string
	s3PathStyle bool
	s3KeyID     string
	s3Secret    string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-backend",
			Usage:       "Import archive backend (none, gcs or s3)",
			Category:    "Archive",
			Value:       "none",
			Sources:     cli.EnvVars("CASEFLOW_ARCHIVE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Bucket of the import archive",
			Category:    "Archive",
			Sources:     cli.EnvVars("CASEFLOW_ARCHIVE_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object key prefix of the import archive",
			Category:    "Archive",
			Sources:     cli.EnvVars("CASEFLOW_ARCHIVE_PREFIX"),
			Destination: &x.prefix,
		},
		&cli.StringFlag{
			Name:        "archive-s3-region",
			Usage:       "AWS region of the S3 bucket",
			Category:    "Archive",
			Sources:     cli.EnvVars("CASEFLOW_ARCHIVE_S3_REGION"),
			Destination: &x.s3Region,
		},
		&cli.StringFlag{
			Name:        "archive-s3-endpoint",
			Usage:       "S3 compatible endpoint URL",
			Category:    "Archive",
			Sources:     cli.EnvVars("CASEFLOW_ARCHIVE_S3_ENDPOINT"),
			Destination: &x.s3Endpoint,
		},
		&cli.BoolFlag{
			Name:        "archive-s3-path-style",
			Usage:       "Use path style S3 addressing",
			Category:    "Archive",
			Sources:     cli.EnvVars("CASEFLOW_ARCHIVE_S3_PATH_STYLE"),
			Destination: &x.s3PathStyle,
		},
		&cli.StringFlag{
			Name:        "archive-s3-access-key-id",
			Usage:       "S3 access key ID (default credential chain when empty)",
			Category:    "Archive",
			Sources:     cli.EnvVars("CASEFLOW_ARCHIVE_S3_ACCESS_KEY_ID"),
			Destination: &x.s3KeyID,
		},
		&cli.StringFlag{
			Name:        "archive-s3-secret-access-key",
			Usage:       "S3 secret access key",
			Category:    "Archive",
			Sources:     cli.EnvVars("CASEFLOW_ARCHIVE_S3_SECRET_ACCESS_KEY"),
			Destination: &x.s3Secret,
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
		slog.Int("s3_secret.len", len(x.s3Secret)),
	)
}

// Configure returns the archive and a function releasing it. The archive is nil for "none".
func (x *Archive) Configure(ctx context.Context) (interfaces.ImportArchive, func(), error) {
	switch x.backend {
	case "", "none":
		return nil, func() {}, nil

	case "gcs":
		store, err := archive.NewGCS(ctx, x.bucket, x.prefix)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to configure GCS archive", goerr.V("bucket", x.bucket))
		}
		logging.Default().Info("Archiving imports to GCS", "bucket", x.bucket, "prefix", x.prefix)
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Default().Warn("failed to close GCS client", "error", err)
			}
		}, nil

	case "s3":
		store, err := archive.NewS3(ctx, archive.S3Config{
			Bucket:          x.bucket,
			Prefix:          x.prefix,
			Region:          x.s3Region,
			Endpoint:        x.s3Endpoint,
			PathStyle:       x.s3PathStyle,
			AccessKeyID:     x.s3KeyID,
			SecretAccessKey: x.s3Secret,
		})
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to configure S3 archive", goerr.V("bucket", x.bucket))
		}
		logging.Default().Info("Archiving imports to S3", "bucket", x.bucket, "prefix", x.prefix)
		return store, func() {}, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "invalid archive backend", goerr.V(BackendKey, x.backend))
	}
}

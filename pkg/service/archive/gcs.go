package archive

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// GCS archives objects in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.Wrap(ErrEmptyBucket, "failed to create GCS archive")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

func (x *GCS) Put(ctx context.Context, key string, data []byte) error {
	name := objectKey(x.prefix, key)
	w := x.client.Bucket(x.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("bucket", x.bucket), goerr.V("key", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V("bucket", x.bucket), goerr.V("key", name))
	}
	return nil
}

func (x *GCS) Close() error {
	return x.client.Close()
}

package archive

import (
	"bytes"
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/m-mizutani/goerr/v2"
)

const defaultRegion = "us-east-1"

// S3Config holds the construction parameters of an S3 archive. Credentials fall back to the
// default AWS chain when AccessKeyID is empty.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3 compatible endpoint such as MinIO
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string

	// HTTPClient replaces the transport of the SDK client
	HTTPClient *http.Client
}

// S3 archives objects in an S3 compatible bucket
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, goerr.Wrap(ErrEmptyBucket, "failed to create S3 archive")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS config", goerr.V("region", region))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})

	return &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (x *S3) Put(ctx context.Context, key string, data []byte) error {
	name := objectKey(x.prefix, key)
	_, err := x.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(x.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put object", goerr.V("bucket", x.bucket), goerr.V("key", name))
	}
	return nil
}

package archive_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/service/archive"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := archive.NewMemory()

	gt.NoError(t, m.Put(ctx, "imports/1/a.csv", []byte("10.0.0.1,ip,,,")))
	data, ok := m.Get("imports/1/a.csv")
	gt.Bool(t, ok).True()
	gt.Value(t, string(data)).Equal("10.0.0.1,ip,,,")

	_, ok = m.Get("imports/1/missing.csv")
	gt.Bool(t, ok).False()
	gt.Number(t, len(m.Objects())).Equal(1)
}

// s3RoundTripper captures PutObject requests of a path-style client
type s3RoundTripper struct {
	mu   sync.Mutex
	puts map[string]string
	ct   map[string]string
}

func (rt *s3RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	path := strings.TrimPrefix(req.URL.Path, "/")
	rt.puts[path] = string(body)
	rt.ct[path] = req.Header.Get("Content-Type")

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Header:     http.Header{"Etag": {`"abc"`}},
	}, nil
}

func TestS3(t *testing.T) {
	ctx := context.Background()
	rt := &s3RoundTripper{puts: map[string]string{}, ct: map[string]string{}}

	store, err := archive.NewS3(ctx, archive.S3Config{
		Bucket:          "evidence",
		Prefix:          "caseflow",
		Endpoint:        "https://s3.mock.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: rt},
	})
	gt.NoError(t, err).Required()

	gt.NoError(t, store.Put(ctx, "imports/1/upload.csv", []byte("evil.example,domain,,,")))

	rt.mu.Lock()
	defer rt.mu.Unlock()
	gt.Value(t, rt.puts["evidence/caseflow/imports/1/upload.csv"]).Equal("evil.example,domain,,,")
	gt.Value(t, rt.ct["evidence/caseflow/imports/1/upload.csv"]).Equal("text/csv")
}

func TestS3_BucketRequired(t *testing.T) {
	_, err := archive.NewS3(context.Background(), archive.S3Config{})
	gt.Error(t, err).Is(archive.ErrEmptyBucket)
}

func TestGCS(t *testing.T) {
	bucket, ok := os.LookupEnv("CASEFLOW_TEST_GCS_BUCKET")
	if !ok {
		t.Skip("CASEFLOW_TEST_GCS_BUCKET is not set")
	}

	ctx := context.Background()
	store, err := archive.NewGCS(ctx, bucket, "caseflow-test")
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = store.Close() })

	gt.NoError(t, store.Put(ctx, "imports/1/"+uuid.NewString()+".csv", []byte("10.0.0.1,ip,,,")))
}

func TestGCS_BucketRequired(t *testing.T) {
	_, err := archive.NewGCS(context.Background(), "", "")
	gt.Error(t, err).Is(archive.ErrEmptyBucket)
}

package minio

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

type objectAPIFake struct {
	exists     bool
	made       []string
	putBucket  string
	putObject  string
	putBody    string
	putOptions minio.PutObjectOptions
	putErr     error
}

func (f *objectAPIFake) BucketExists(context.Context, string) (bool, error) {
	return f.exists, nil
}

func (f *objectAPIFake) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *objectAPIFake) PutObject(_ context.Context, bucket, object string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	body, _ := io.ReadAll(reader)
	f.putBucket, f.putObject, f.putBody, f.putOptions = bucket, object, string(body), opts
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: int64(len(body))}, nil
}

func noRetry() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 1, BreakerEnabled: false})
}

func TestSavePutsObjectWithContentType(t *testing.T) {
	api := &objectAPIFake{exists: true}
	s := newStorage(api, "archive", noRetry())

	if err := s.Save(context.Background(), "id-1_invoice.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if api.putBucket != "archive" || api.putObject != "id-1_invoice.pdf" || api.putBody != "%PDF" {
		t.Fatalf("unexpected put %+v", api)
	}
	if api.putOptions.ContentType != "application/pdf" {
		t.Fatalf("unexpected content type %q", api.putOptions.ContentType)
	}
}

func TestSaveWrapsUploadError(t *testing.T) {
	api := &objectAPIFake{putErr: errors.New("connection refused")}
	s := newStorage(api, "", noRetry())
	err := s.Save(context.Background(), "a.png", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "upload a.png") {
		t.Fatalf("expected wrapped upload error, got %v", err)
	}
}

func TestEnsureBucketCreatesMissingBucket(t *testing.T) {
	api := &objectAPIFake{}
	s := newStorage(api, "", noRetry())
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket() error = %v", err)
	}
	if len(api.made) != 1 || api.made[0] != "invoices" {
		t.Fatalf("expected default bucket to be created, got %v", api.made)
	}

	api = &objectAPIFake{exists: true}
	if err := newStorage(api, "x", noRetry()).EnsureBucket(context.Background()); err != nil || len(api.made) != 0 {
		t.Fatalf("existing bucket must be left alone: %v %v", err, api.made)
	}
}

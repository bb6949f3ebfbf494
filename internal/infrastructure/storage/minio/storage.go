// Package minio archives original uploads in an S3-compatible bucket.
package minio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Storage struct {
	api      objectAPI
	bucket   string
	executor *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newStorage(client, cfg.Bucket, executor), nil
}

func newStorage(api objectAPI, bucket string, executor *resilience.Executor) *Storage {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	if strings.TrimSpace(bucket) == "" {
		bucket = "invoices"
	}
	return &Storage{api: api, bucket: bucket, executor: executor}
}

// EnsureBucket creates the bucket when it is missing.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	opts := minio.PutObjectOptions{ContentType: contentType(key)}
	return s.executor.Execute(ctx, "minio.put_object", func(callCtx context.Context) error {
		if _, err := s.api.PutObject(callCtx, s.bucket, key, data, -1, opts); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		return nil
	}, resilience.ClassifyRemote)
}

func contentType(key string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

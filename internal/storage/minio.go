package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds connection settings for an S3 compatible store.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// MinIOSink archives transcripts as text/plain objects under
// transcripts/<session>/<name>.
type MinIOSink struct {
	client    *minio.Client
	bucket    string
	sessionID string
}

// NewMinIOSink creates a sink for sessionID. The bucket is created on first
// save if missing.
func NewMinIOSink(cfg MinIOConfig, sessionID string) (*MinIOSink, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOSink{client: client, bucket: cfg.Bucket, sessionID: sessionID}, nil
}

// ObjectName returns the object key used for name.
func (m *MinIOSink) ObjectName(name string) string {
	return path.Join("transcripts", m.sessionID, path.Base(strings.ReplaceAll(name, "\\", "/")))
}

// Save uploads content.
func (m *MinIOSink) Save(ctx context.Context, name, content string) error {
	content, err := prepare(content)
	if err != nil {
		return err
	}

	if err := m.ensureBucket(ctx); err != nil {
		return err
	}

	_, err = m.client.PutObject(ctx, m.bucket, m.ObjectName(name), strings.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("failed to upload transcript: %w", err)
	}
	return nil
}

func (m *MinIOSink) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

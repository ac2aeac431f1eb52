package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ledgerly-backend/internal/shared/storage/object"
	"ledgerly-backend/internal/shared/util"
)

// Store implements ObjectStore against a MinIO (or other S3-compatible)
// endpoint. Used for self-hosted deployments.
type Store struct {
	client *minio.Client
	bucket string
}

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New creates a MinIO-backed object store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (object.ObjectStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Save uploads the reader contents under the scope's namespace.
func (s *Store) Save(ctx context.Context, scope string, fileName string, r io.Reader) (string, int64, string, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, "", fmt.Errorf("sanitize file name: %w", err)
	}

	scopeKey := util.HashScopeKey(scope)

	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}

	storageKey := path.Join(scopeKey, fmt.Sprintf("%s_%s", uuid.NewString(), sanitizedName))

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return "", 0, "", fmt.Errorf("read sniff: %w", readErr)
	}

	mimeType := http.DetectContentType(sniff[:n])
	body := io.MultiReader(bytes.NewReader(sniff[:n]), r)

	info, err := s.client.PutObject(ctx, s.bucket, storageKey, body, -1, minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return "", 0, "", fmt.Errorf("minio put object bucket=%s key=%s: %w", s.bucket, storageKey, err)
	}

	return storageKey, info.Size, mimeType, nil
}

// Open downloads a stored object for reading. The object is stat-ed first so
// missing keys fail here rather than on first read.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, storageKey, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("minio stat object bucket=%s key=%s: %w", s.bucket, storageKey, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, storageKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object bucket=%s key=%s: %w", s.bucket, storageKey, err)
	}
	return obj, nil
}

// Delete removes a stored object.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, storageKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove object bucket=%s key=%s: %w", s.bucket, storageKey, err)
	}
	return nil
}

// SaveWithKey uploads data to a specific storage key.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, storageKey, r, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("minio put object bucket=%s key=%s: %w", s.bucket, storageKey, err)
	}
	return info.Size, nil
}

// PresignGet mints a pre-signed GET URL for a stored object.
func (s *Store) PresignGet(ctx context.Context, storageKey string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, storageKey, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("minio presign get bucket=%s key=%s: %w", s.bucket, storageKey, err)
	}
	return u.String(), nil
}

// PresignPut mints a pre-signed PUT URL so clients can upload directly.
func (s *Store) PresignPut(ctx context.Context, storageKey string, contentType string, ttl time.Duration) (string, error) {
	_ = contentType
	u, err := s.client.PresignedPutObject(ctx, s.bucket, storageKey, ttl)
	if err != nil {
		return "", fmt.Errorf("minio presign put bucket=%s key=%s: %w", s.bucket, storageKey, err)
	}
	return u.String(), nil
}

var (
	_ object.ObjectStore = (*Store)(nil)
	_ object.KeySaver    = (*Store)(nil)
	_ object.Presigner   = (*Store)(nil)
)

package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
)

// Storage keeps uploaded objects in a MinIO bucket. Resolve materializes
// the object into a local cache directory so ffmpeg and range streaming
// can work against a plain file path.
type Storage struct {
	client   *miniogo.Client
	bucket   string
	cacheDir string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	CacheDir  string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Storage{
		client:   client,
		bucket:   cfg.Bucket,
		cacheDir: cfg.CacheDir,
	}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *Storage) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	return nil
}

func (s *Storage) Resolve(ctx context.Context, key string) (string, error) {
	local := filepath.Join(s.cacheDir, filepath.FromSlash(key))
	if err := s.client.FGetObject(ctx, s.bucket, key, local, miniogo.GetObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return "", port.ErrNotFound
		}
		return "", fmt.Errorf("fetch object: %w", err)
	}
	return local, nil
}

func (s *Storage) Stat(ctx context.Context, key string) (port.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return port.ObjectInfo{}, port.ErrNotFound
		}
		return port.ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	return port.ObjectInfo{
		Size:        info.Size,
		ContentType: info.ContentType,
		ModifiedAt:  info.LastModified,
	}, nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	// Cached copy is best-effort cleanup.
	_ = os.Remove(filepath.Join(s.cacheDir, filepath.FromSlash(key)))
	return nil
}

func isNoSuchKey(err error) bool {
	var resp miniogo.ErrorResponse
	return errors.As(err, &resp) && resp.Code == "NoSuchKey"
}

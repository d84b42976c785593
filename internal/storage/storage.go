// Package storage uploads finished dataset archives to S3-compatible object
// storage.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ytframes/internal/config"
)

const defaultRegion = "us-east-1"

// Storage wraps a minio client bound to one bucket.
type Storage struct {
	client   *miniogo.Client
	bucket   string
	prefix   string
	endpoint string
	secure   bool
}

// New creates a client from the storage section of cfg. It returns nil, nil
// when uploads are disabled.
func New(cfg config.Storage) (*Storage, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Storage{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		endpoint: cfg.Endpoint,
		secure:   cfg.UseSSL,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{Region: defaultRegion}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// ObjectKey returns the key an archive file is stored under.
func (s *Storage) ObjectKey(archivePath string) string {
	name := filepath.Base(archivePath)
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// UploadArchive stores the archive at archivePath and returns its object URL.
func (s *Storage) UploadArchive(ctx context.Context, archivePath string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat archive: %w", err)
	}

	key := s.ObjectKey(archivePath)
	_, err = s.client.PutObject(ctx, s.bucket, key, f, info.Size(), miniogo.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("upload archive: %w", err)
	}
	return s.objectURL(key), nil
}

func (s *Storage) objectURL(key string) string {
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: s.endpoint, Path: "/" + s.bucket + "/" + key}
	return u.String()
}

// Check reports whether the bucket is reachable and exists.
func (s *Storage) Check(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"rodroyale/config"
)

var (
	ErrFileType = errors.New("file type not allowed")
	ErrNotFound = errors.New("image not found")
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".heic": true, ".heif": true,
}

func AllowedExtensions() []string {
	return []string{"jpg", "jpeg", "png", "gif", "webp", "heic", "heif"}
}

func CheckFilename(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrFileType, ext)
	}
	return nil
}

// ObjectName builds folder/<owner>/<uuid><ext>. The owner segment is how
// deletes are authorized later.
func ObjectName(folder string, owner uint, filename string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "catches"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%d/%s%s", folder, owner, uuid.New().String(), ext)
}

// OwnerOf reads the owner segment back out of an object name.
func OwnerOf(object string) (uint, bool) {
	parts := strings.Split(strings.Trim(object, "/"), "/")
	if len(parts) < 3 {
		return 0, false
	}
	id, err := strconv.ParseUint(parts[len(parts)-2], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinio(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect minio: %w", err)
	}
	return &MinioStore{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: strings.TrimRight(cfg.MinioPublicURL, "/"),
	}, nil
}

func (m *MinioStore) EnsureBucket(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.bucket, err)
	}
	if ok {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
	}
	return nil
}

func (m *MinioStore) URL(object string) string {
	return m.publicURL + "/" + m.bucket + "/" + object
}

func (m *MinioStore) Put(ctx context.Context, object string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	return m.URL(object), nil
}

func (m *MinioStore) Remove(ctx context.Context, object string) error {
	if _, err := m.client.StatObject(ctx, m.bucket, object, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to stat %s: %w", object, err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", object, err)
	}
	return nil
}

func (m *MinioStore) PresignedURL(ctx context.Context, object string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, object, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", object, err)
	}
	return u.String(), nil
}

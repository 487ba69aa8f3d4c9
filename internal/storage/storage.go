// Package storage defines the interface for object storage operations.
// Swap implementations by changing STORAGE_PROVIDER; every driver stores objects
// with public read access and hands back the browser-accessible URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/photobridge/service/internal/config"
)

// ErrInvalidKey is returned when a key would escape the storage namespace.
var ErrInvalidKey = errors.New("invalid object key")

// Storage is the interface for storing publicly readable objects.
type Storage interface {
	// Put streams data to the store under the given key and returns its public URL.
	// size must be the exact byte count, or -1 when unknown.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
}

// New builds the Storage selected by cfg.StorageProvider.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Storage, error) {
	switch cfg.StorageProvider {
	case config.ProviderMinio, "":
		return NewMinioStorage(ctx, MinioOptions{
			Endpoint:   cfg.StorageEndpoint,
			AccessKey:  cfg.StorageAccessKey,
			SecretKey:  cfg.StorageSecretKey,
			Bucket:     cfg.StorageBucket,
			PublicBase: cfg.StoragePublicBase,
			UseSSL:     cfg.StorageUseSSL,
		}, log)
	case config.ProviderS3:
		return NewS3Storage(ctx, S3Options{
			Region:     cfg.StorageRegion,
			Bucket:     cfg.StorageBucket,
			Endpoint:   cfg.StorageS3Endpoint,
			AccessKey:  cfg.StorageAccessKey,
			SecretKey:  cfg.StorageSecretKey,
			PublicBase: cfg.StoragePublicBase,
		})
	case config.ProviderCloudinary:
		return NewCloudinaryStorage(cfg.CloudinaryURL)
	case config.ProviderLocal:
		return NewLocalStorage(cfg.StorageLocalDir, cfg.PublicBaseURL+LocalRoute)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}

// checkKey rejects empty keys and keys carrying path segments.
func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// joinURL appends an escaped key to a public base URL.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(key)
}

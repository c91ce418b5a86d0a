// Package storage stores the artifacts of a remap job: the uploaded
// program dump and remap table, the rewritten dump and the pass
// report. Keys are slash-separated (dumps/, tables/, outputs/,
// reports/) regardless of backend.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/resopt/pkg/config"
)

// Storage is the artifact store used by the processor and the report
// API. Implementations must be safe for concurrent use; worker
// goroutines share one store.
type Storage interface {
	// Upload writes the reader's content under key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile uploads a local file under key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download opens the artifact at key. The caller closes it.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadFile copies the artifact at key to a local file.
	DownloadFile(ctx context.Context, key string, localPath string) error

	// Delete removes the artifact at key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an artifact is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where the artifact at key can be fetched from: a
	// file path for local storage, an HTTP URL for COS.
	GetURL(key string) string
}

// StorageType selects the backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage builds the backend named by the configuration. An empty
// or unknown type falls back to local storage.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig rejects configurations the factory cannot build.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	switch StorageType(cfg.Type) {
	case StorageTypeLocal, "":
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	return nil
}

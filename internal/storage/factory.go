package storage

import (
	"context"
	"fmt"

	"stormplot/internal/config"
)

// NewStorageClient creates a storage client for cfg.StorageMode. Local clients
// are rooted at baseDir; GCS clients use the configured bucket and prefix.
func NewStorageClient(ctx context.Context, cfg *config.Config, baseDir string) (StorageClient, error) {
	switch cfg.StorageMode {
	case config.StorageLocal, "":
		localClient, err := NewLocalStorageClient(baseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage client: %w", err)
		}
		return localClient, nil

	case config.StorageGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS storage requires a bucket")
		}
		gcsClient, err := NewGCSClient(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return gcsClient, nil

	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.StorageMode)
	}
}

package storage

import (
	"context"
	"fmt"

	"github.com/rohits-web03/docvault/internal/config"
)

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageLocal, "":
		return NewLocalStore(cfg.UploadsDir)
	case config.StorageS3:
		return NewS3Store(cfg.S3)
	case config.StorageGCS:
		return NewGCSStore(ctx, cfg.GCS.BucketName)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

package storage

import (
	"context"
	"fmt"

	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New builds the FileStorage selected by cfg.Type
func New(ctx context.Context, cfg *config.StorageConfig, baseURL string, logger *zap.Logger) (shared.FileStorage, error) {
	switch cfg.Type {
	case "", "local":
		logger.Info("Using local file storage", zap.String("path", cfg.LocalPath))
		return NewLocalStorage(cfg.LocalPath, baseURL+"/files")
	case "s3":
		s, err := NewS3Storage(ctx, cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Using S3 file storage", zap.String("bucket", s.Bucket()))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

package storage

import (
	"context"
	"fmt"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	infraconfig "github.com/mosesmbadi/easymed-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewReceiptStore picks the store named by cfg.Type.
func NewReceiptStore(ctx context.Context, cfg infraconfig.StorageConfig, logger *zap.Logger) (billing.ReceiptStore, error) {
	switch cfg.Type {
	case "", "stub":
		logger.Info("Using in-memory receipt store")
		return NewStubReceiptStore(), nil
	case "s3":
		store, err := NewS3ReceiptStore(ctx, cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		logger.Info("Using S3 receipt store", zap.String("bucket", store.Bucket()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

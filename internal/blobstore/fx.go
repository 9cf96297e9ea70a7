package blobstore

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ClemmensSES/SESSalesResources/internal/config"
)

// Module provides the Store selected by configuration.
var Module = fx.Module("blobstore",
	fx.Provide(New),
)

// New builds the configured driver. The fs driver is the default so a
// bare checkout runs without an object-storage backend.
func New(cfg config.Config, log *zap.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Blob.Driver))
	switch driver {
	case "", "fs":
		dir := cfg.Blob.Dir
		if dir == "" {
			dir = "data"
		}
		log.Info("blobstore driver", zap.String("driver", "fs"), zap.String("dir", dir))
		return NewFSStore(dir)
	case "s3":
		log.Info("blobstore driver",
			zap.String("driver", "s3"),
			zap.String("endpoint", cfg.Blob.Endpoint),
			zap.String("bucket", cfg.Blob.Bucket),
		)
		return NewS3Store(context.Background(), S3Config{
			Endpoint:  cfg.Blob.Endpoint,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			UseSSL:    cfg.Blob.UseSSL,
			Bucket:    cfg.Blob.Bucket,
			Prefix:    cfg.Blob.Prefix,
		})
	default:
		return nil, fmt.Errorf("blobstore: unsupported driver %q", driver)
	}
}

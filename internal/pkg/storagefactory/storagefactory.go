package storagefactory

import (
	"fmt"

	"storyreel/internal/config"
	"storyreel/internal/pkg/storage"
	"storyreel/internal/pkg/storage/local"
	"storyreel/internal/pkg/storage/minio"
	"storyreel/internal/pkg/storage/oss"
)

// NewStorage 根据配置创建存储实例
func NewStorage(cfg *config.StorageConfig) (storage.Storage, error) {
	switch storage.StorageType(cfg.Type) {
	case storage.StorageTypeLocal:
		if cfg.Local == nil {
			return nil, fmt.Errorf("local storage config is required")
		}
		return local.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	case storage.StorageTypeOSS:
		if cfg.OSS == nil {
			return nil, fmt.Errorf("OSS storage config is required")
		}
		return oss.NewOSSStorage(
			cfg.OSS.Endpoint,
			cfg.OSS.Bucket,
			cfg.OSS.AccessKeyID,
			cfg.OSS.AccessKeySecret,
			cfg.OSS.PresignExpiry,
		)
	case storage.StorageTypeMinIO:
		if cfg.Minio == nil {
			return nil, fmt.Errorf("minio storage config is required")
		}
		return minio.NewMinioStorage(minio.Options{
			Endpoint:        cfg.Minio.Endpoint,
			Bucket:          cfg.Minio.Bucket,
			AccessKeyID:     cfg.Minio.AccessKeyID,
			AccessKeySecret: cfg.Minio.AccessKeySecret,
			Region:          cfg.Minio.Region,
			UseSSL:          cfg.Minio.UseSSL,
			PresignExpiry:   cfg.Minio.PresignExpiry,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

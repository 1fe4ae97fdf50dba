// Package upload 把成片上传到对象存储
package upload

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/rs/zerolog/log"

	"storyreel/internal/pkg/storage"
)

const presignExpiry = 7 * 24 * time.Hour

// Service 上传服务
type Service struct {
	store         storage.Storage
	publicBaseURL string
}

// NewService 创建上传服务，publicBaseURL 非空时对外地址由它拼接
func NewService(store storage.Storage, publicBaseURL string) *Service {
	return &Service{store: store, publicBaseURL: publicBaseURL}
}

// ObjectName 成片的对象名
func ObjectName(taskID, localPath string) string {
	return path.Join("videos", taskID, path.Base(localPath))
}

// Upload 上传本地文件，返回对外可访问的URL
func (s *Service) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	size := int64(-1)
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}

	url, err := s.store.Upload(ctx, objectName, f, size, storage.ContentType(localPath))
	if err != nil {
		return "", fmt.Errorf("upload to %s: %w", s.store.Type(), err)
	}
	log.Info().Str("object", objectName).Str("storage", string(s.store.Type())).Msg("video uploaded")

	if s.publicBaseURL != "" {
		return storage.JoinURL(s.publicBaseURL, objectName), nil
	}
	if url != "" {
		return url, nil
	}
	return s.store.PresignGet(ctx, objectName, presignExpiry)
}

package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyreel/internal/pkg/storage"
)

// LocalStorage 本地文件系统存储，文件由 HTTP 服务以静态目录方式暴露
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage 创建本地文件系统存储
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Upload 写入文件，失败时删除残留
func (s *LocalStorage) Upload(_ context.Context, key string, data io.Reader, _ int64, _ string) (string, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, data); err != nil {
		file.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return storage.JoinURL(s.baseURL, key), nil
}

// PresignGet 本地存储没有签名机制，直接返回文件URL
func (s *LocalStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	return storage.JoinURL(s.baseURL, key), nil
}

func (s *LocalStorage) Type() storage.StorageType {
	return storage.StorageTypeLocal
}

// BasePath 本地根目录
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// resolve 拒绝逃逸出根目录的 key
func (s *LocalStorage) resolve(key string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return full, nil
}

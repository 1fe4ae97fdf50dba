package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Storage 对象存储接口
type Storage interface {
	// Upload 上传对象，size 未知时传 -1，返回对象的直接访问URL
	Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error)

	// PresignGet 生成限时下载URL
	PresignGet(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// Type 存储类型
	Type() StorageType
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
	StorageTypeMinIO StorageType = "minio" // MinIO / S3 兼容 (R2)
)

var contentTypes = map[string]string{
	".json": "application/json",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ass":  "text/x-ass",
	".srt":  "text/plain",
}

// ContentType 根据扩展名推断 Content-Type
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// JoinURL 拼接基础URL与对象 key
func JoinURL(base, key string) string {
	key = strings.TrimPrefix(strings.ReplaceAll(key, "\\", "/"), "/")
	return strings.TrimSuffix(base, "/") + "/" + key
}

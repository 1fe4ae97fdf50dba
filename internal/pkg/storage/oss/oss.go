package oss

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"storyreel/internal/pkg/storage"
)

// OSSStorage 阿里云OSS存储
type OSSStorage struct {
	bucket     *oss.Bucket
	bucketName string
	endpoint   string
	maxExpiry  time.Duration
}

// NewOSSStorage 创建阿里云OSS存储
func NewOSSStorage(endpoint, bucketName, accessKeyID, accessKeySecret string, presignExpiry int) (*OSSStorage, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &OSSStorage{
		bucket:     bucket,
		bucketName: bucketName,
		endpoint:   endpoint,
		maxExpiry:  time.Duration(presignExpiry) * time.Second,
	}, nil
}

// Upload 服务端上传
func (s *OSSStorage) Upload(_ context.Context, key string, data io.Reader, _ int64, contentType string) (string, error) {
	if err := s.bucket.PutObject(key, data, oss.ContentType(contentType)); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, s.endpoint, key), nil
}

// PresignGet 签名下载URL，不超过配置的最长有效期
func (s *OSSStorage) PresignGet(_ context.Context, key string, expiresIn time.Duration) (string, error) {
	expiry := expiresIn
	if s.maxExpiry > 0 && s.maxExpiry < expiresIn {
		expiry = s.maxExpiry
	}
	url, err := s.bucket.SignURL(key, oss.HTTPGet, int64(expiry.Seconds()))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return url, nil
}

func (s *OSSStorage) Type() storage.StorageType {
	return storage.StorageTypeOSS
}

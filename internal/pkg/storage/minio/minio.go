package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"storyreel/internal/pkg/storage"
)

// MinioStorage S3 兼容对象存储 (MinIO / Cloudflare R2 / AWS S3)
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	region    string
	baseURL   string
	maxExpiry time.Duration

	bucketOnce sync.Once
	bucketErr  error
}

// Options 连接参数
type Options struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	AccessKeySecret string
	Region          string
	UseSSL          bool
	PresignExpiry   int
}

// NewMinioStorage 创建 S3 兼容存储
func NewMinioStorage(opts Options) (*MinioStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.AccessKeySecret, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	scheme := "http"
	if opts.UseSSL {
		scheme = "https"
	}
	return &MinioStorage{
		client:    client,
		bucket:    opts.Bucket,
		region:    opts.Region,
		baseURL:   fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSuffix(opts.Endpoint, "/"), opts.Bucket),
		maxExpiry: time.Duration(opts.PresignExpiry) * time.Second,
	}, nil
}

// ensureBucket 首次上传时确保 Bucket 存在
func (s *MinioStorage) ensureBucket(ctx context.Context) error {
	s.bucketOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketErr = fmt.Errorf("check bucket failed: %w", err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
				s.bucketErr = fmt.Errorf("make bucket failed: %w", err)
			}
		}
	})
	return s.bucketErr
}

// Upload 流式上传
func (s *MinioStorage) Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload to minio failed: %w", err)
	}
	return storage.JoinURL(s.baseURL, key), nil
}

// PresignGet 签名下载URL
func (s *MinioStorage) PresignGet(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	expiry := expiresIn
	if s.maxExpiry > 0 && s.maxExpiry < expiresIn {
		expiry = s.maxExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign failed: %w", err)
	}
	return u.String(), nil
}

func (s *MinioStorage) Type() storage.StorageType {
	return storage.StorageTypeMinIO
}

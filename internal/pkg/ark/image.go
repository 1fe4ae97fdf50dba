// Package ark 火山方舟图片生成客户端
package ark

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

const (
	DefaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultModel   = "doubao-seedream-3-0-t2i-250415"
	DefaultSize    = "720x1280"
)

// ImageConfig Ark 图片生成配置
type ImageConfig struct {
	APIKey  string // API Key（必需）
	BaseURL string // 可选，默认 DefaultBaseURL
	Model   string // 可选，默认 DefaultModel
	Size    string // 可选，默认竖屏 720x1280
}

// ImageClient Ark 图片生成客户端
// 同步接口，返回托管的图片 URL
type ImageClient struct {
	client *arkruntime.Client
	model  string
	size   string
}

// NewImageClient 创建 Ark 图片生成客户端
func NewImageClient(cfg ImageConfig) (*ImageClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ark api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	m := cfg.Model
	if m == "" {
		m = DefaultModel
	}
	size := cfg.Size
	if size == "" {
		size = DefaultSize
	}

	return &ImageClient{
		client: arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL)),
		model:  m,
		size:   size,
	}, nil
}

// GenerateImage 生成一张图片并返回 URL
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	size := c.size
	responseFormat := "url"
	watermark := false

	output, err := c.client.GenerateImages(ctx, model.GenerateImagesRequest{
		Model:          c.model,
		Prompt:         prompt,
		Size:           &size,
		ResponseFormat: &responseFormat,
		Watermark:      &watermark,
	})
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("ark GenerateImages failed")
		return "", fmt.Errorf("ark GenerateImages: %w", err)
	}
	if len(output.Data) == 0 || output.Data[0] == nil {
		return "", fmt.Errorf("no image data in response")
	}
	if output.Data[0].Url == nil || *output.Data[0].Url == "" {
		return "", fmt.Errorf("no url in response data")
	}
	return *output.Data[0].Url, nil
}

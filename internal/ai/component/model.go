package component

import (
	"context"
	"fmt"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"storyreel/internal/config"
)

const (
	defaultOpenAIModel  = "gpt-4o"
	defaultArkBaseURL   = "https://ark.cn-beijing.volces.com/api/v3"
	defaultArkModel     = "doubao-seed-1-6-flash-250615"
	defaultAzureVersion = "2024-06-01"
)

// NewChatModel 创建故事与分镜生成使用的 ChatModel
// 支持 openai（含兼容代理）、azure、ark
func NewChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is required")
	}
	temp, maxTokens, topP := sampling(cfg.Options)

	switch cfg.Provider {
	case "openai", "":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       orDefault(cfg.Model, defaultOpenAIModel),
			Temperature: temp,
			MaxTokens:   maxTokens,
			TopP:        topP,
		})
	case "azure":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("ai.base_url is required for azure")
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			ByAzure:     true,
			APIVersion:  defaultAzureVersion,
			Model:       orDefault(cfg.Model, defaultOpenAIModel),
			Temperature: temp,
			MaxTokens:   maxTokens,
			TopP:        topP,
		})
	case "ark":
		return arkext.NewChatModel(ctx, &arkext.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     orDefault(cfg.BaseURL, defaultArkBaseURL),
			Model:       orDefault(cfg.Model, defaultArkModel),
			Temperature: temp,
			MaxTokens:   maxTokens,
			TopP:        topP,
		})
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// sampling 未配置的参数返回 nil，由服务端使用默认值
func sampling(o config.AIOptionsConfig) (temp *float32, maxTokens *int, topP *float32) {
	if o.Temperature > 0 {
		t := float32(o.Temperature)
		temp = &t
	}
	if o.MaxTokens > 0 {
		m := o.MaxTokens
		maxTokens = &m
	}
	if o.TopP > 0 {
		p := float32(o.TopP)
		topP = &p
	}
	return temp, maxTokens, topP
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

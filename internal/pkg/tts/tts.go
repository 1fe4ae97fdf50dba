// Package tts 文本转语音客户端。
package tts

import (
	"context"
	"errors"
	"fmt"

	"storyreel/internal/config"
)

// ErrEmptyAudio 服务返回了空音频
var ErrEmptyAudio = errors.New("tts returned empty audio")

// Word 词级时间戳（秒）
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Speech 合成结果
//
// Duration 为 0 表示服务未返回时长，需要调用方自行探测；Words 为空表示没有词级时间戳。
type Speech struct {
	Audio    []byte
	Format   string
	Duration float64
	Words    []Word
}

// Provider 语音合成供应商
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text, voice string) (*Speech, error)
}

// NewProvider 根据配置创建供应商
func NewProvider(cfg *config.TTSConfig) (Provider, error) {
	speed := cfg.Speed
	if speed <= 0 {
		speed = 1.0
	}
	switch cfg.Provider {
	case "volcano":
		return NewVolcanoClient(VolcanoConfig{
			APIURL:      cfg.Volcano.Endpoint,
			AccessToken: cfg.Volcano.Token,
			AppID:       cfg.Volcano.AppID,
			Cluster:     cfg.Volcano.Cluster,
			Speed:       speed,
		})
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Speed:   speed,
		})
	default:
		return nil, fmt.Errorf("unsupported tts provider: %s", cfg.Provider)
	}
}

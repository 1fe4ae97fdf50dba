package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "tts-1"
)

// OpenAIConfig OpenAI 兼容 /audio/speech 接口配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Speed   float64
}

// OpenAIClient OpenAI 兼容语音合成，不返回时间戳
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	speed      float64
	httpClient *http.Client
}

// NewOpenAIClient 创建 OpenAI 兼容语音合成客户端
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai tts api key is required")
	}
	c := &OpenAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		speed:      cfg.Speed,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	if c.baseURL == "" {
		c.baseURL = defaultOpenAIBaseURL
	}
	if c.model == "" {
		c.model = defaultOpenAIModel
	}
	if c.speed <= 0 {
		c.speed = 1.0
	}
	return c, nil
}

func (c *OpenAIClient) Name() string { return "openai" }

// Synthesize 调用 /audio/speech 生成 mp3
func (c *OpenAIClient) Synthesize(ctx context.Context, text, voice string) (*Speech, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model":           c.model,
		"input":           text,
		"voice":           voice,
		"speed":           c.speed,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech request failed: status %d, body: %s", resp.StatusCode, truncate(audio, 256))
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return &Speech{Audio: audio, Format: "mp3"}, nil
}

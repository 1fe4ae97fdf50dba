// Package replicate Replicate 托管推理客户端（提交预测后轮询结果）
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://api.replicate.com/v1"
	DefaultModel   = "black-forest-labs/flux-schnell"
)

// Status 预测状态
type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal 是否为终态
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Config Replicate 配置
type Config struct {
	APIToken     string
	BaseURL      string
	Model        string        // owner/name
	AspectRatio  string        // 默认 9:16
	PollInterval time.Duration // 轮询间隔
	MaxWait      time.Duration // 最大等待时间
	Timeout      time.Duration // 单次请求超时
}

// Prediction 预测任务
type Prediction struct {
	ID     string          `json:"id"`
	Status Status          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

// OutputURL 取第一个输出 URL，output 可能是字符串或字符串数组
func (p *Prediction) OutputURL() string {
	if len(p.Output) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(p.Output, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

// Client Replicate API 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建 Replicate 客户端
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("replicate api token is required")
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = "9:16"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 300 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Submit 提交预测
func (c *Client) Submit(ctx context.Context, prompt string) (*Prediction, error) {
	payload, err := json.Marshal(map[string]any{
		"input": map[string]any{
			"prompt":        prompt,
			"aspect_ratio":  c.cfg.AspectRatio,
			"output_format": "png",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prediction payload: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s/predictions", c.cfg.BaseURL, c.cfg.Model)
	return c.do(ctx, http.MethodPost, url, payload)
}

// Poll 查询预测状态
func (c *Client) Poll(ctx context.Context, getURL string) (*Prediction, error) {
	return c.do(ctx, http.MethodGet, getURL, nil)
}

// GenerateImage 提交并轮询直到终态或超时，返回图片 URL
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	pred, err := c.Submit(ctx, prompt)
	if err != nil {
		return "", err
	}
	log.Debug().Str("prediction_id", pred.ID).Msg("replicate prediction submitted")

	deadline := time.Now().Add(c.cfg.MaxWait)
	for !pred.Status.Terminal() {
		if time.Now().After(deadline) {
			return "", fmt.Errorf("prediction %s timed out after %v", pred.ID, c.cfg.MaxWait)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}

		getURL := pred.URLs.Get
		if getURL == "" {
			getURL = fmt.Sprintf("%s/predictions/%s", c.cfg.BaseURL, pred.ID)
		}
		next, err := c.Poll(ctx, getURL)
		if err != nil {
			log.Warn().Err(err).Str("prediction_id", pred.ID).Msg("poll prediction failed")
			continue
		}
		pred = next
	}

	if pred.Status != StatusSucceeded {
		return "", fmt.Errorf("prediction %s %s: %v", pred.ID, pred.Status, pred.Error)
	}
	url := pred.OutputURL()
	if url == "" {
		return "", fmt.Errorf("prediction %s succeeded without output", pred.ID)
	}
	return url, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*Prediction, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate returned status %d: %s", resp.StatusCode, string(data))
	}

	var pred Prediction
	if err := json.Unmarshal(data, &pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return &pred, nil
}

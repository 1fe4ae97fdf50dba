// Package imagegen 带重试的图片生成适配层
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"storyreel/internal/config"
	"storyreel/internal/pkg/ark"
	"storyreel/internal/pkg/replicate"
)

// ErrEmptyURL 供应商返回成功但没有 URL
var ErrEmptyURL = errors.New("provider returned empty url")

// Provider 图片生成供应商
type Provider interface {
	Name() string
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// StatusFunc 第一次尝试前调用，用于上报 processing 状态
type StatusFunc func(ctx context.Context) error

// Result 生成结果，URL 为空表示重试耗尽
type Result struct {
	URL      string
	Attempts int
	Err      error
}

// OK 是否成功
func (r Result) OK() bool { return r.URL != "" }

// Generator 固定间隔重试的图片生成器
type Generator struct {
	provider    Provider
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(time.Duration)
}

// NewGenerator 创建生成器
func NewGenerator(provider Provider, maxAttempts int, retryDelay time.Duration) *Generator {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	if retryDelay < 0 {
		retryDelay = 0
	}
	return &Generator{
		provider:    provider,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		sleep:       time.Sleep,
	}
}

// WithSleep 替换等待函数
func (g *Generator) WithSleep(sleep func(time.Duration)) *Generator {
	g.sleep = sleep
	return g
}

// Generate 生成图片，失败时按固定间隔重试，不返回 error 也不 panic
func (g *Generator) Generate(ctx context.Context, prompt string, onStart StatusFunc) (res Result) {
	if onStart != nil {
		if err := onStart(ctx); err != nil {
			log.Warn().Err(err).Msg("image status update failed")
		}
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		res.Attempts = attempt
		url, err := g.call(ctx, prompt)
		if err == nil {
			return Result{URL: url, Attempts: attempt}
		}
		res.Err = err

		log.Warn().
			Err(err).
			Str("provider", g.provider.Name()).
			Int("attempt", attempt).
			Int("max_attempts", g.maxAttempts).
			Msg("image generation attempt failed")

		if attempt < g.maxAttempts {
			g.sleep(g.retryDelay)
		}
	}
	return res
}

// call 单次调用，供应商 panic 按失败处理
func (g *Generator) call(ctx context.Context, prompt string) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	url, err = g.provider.GenerateImage(ctx, prompt)
	if err == nil && url == "" {
		err = ErrEmptyURL
	}
	return url, err
}

type arkProvider struct{ *ark.ImageClient }

func (arkProvider) Name() string { return "ark" }

type replicateProvider struct{ *replicate.Client }

func (replicateProvider) Name() string { return "replicate" }

// NewProvider 根据 image.provider 选择供应商
func NewProvider(cfg *config.ImageConfig) (Provider, error) {
	switch cfg.Provider {
	case "ark":
		c, err := ark.NewImageClient(ark.ImageConfig{
			APIKey:  cfg.Ark.APIKey,
			BaseURL: cfg.Ark.BaseURL,
			Model:   cfg.Ark.Model,
			Size:    cfg.Ark.Size,
		})
		if err != nil {
			return nil, err
		}
		return arkProvider{c}, nil
	case "replicate":
		c, err := replicate.NewClient(replicate.Config{
			APIToken:     cfg.Replicate.APIToken,
			BaseURL:      cfg.Replicate.BaseURL,
			Model:        cfg.Replicate.Model,
			AspectRatio:  cfg.Replicate.AspectRatio,
			PollInterval: cfg.Replicate.PollInterval,
			MaxWait:      cfg.Replicate.MaxWait,
		})
		if err != nil {
			return nil, err
		}
		return replicateProvider{c}, nil
	default:
		return nil, fmt.Errorf("unsupported image provider: %s", cfg.Provider)
	}
}

// New 根据配置创建生成器
func New(cfg *config.ImageConfig) (*Generator, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewGenerator(p, cfg.MaxAttempts, cfg.RetryDelay), nil
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"storyreel/internal/config"
)

const (
	// TypeGenerateVideo 视频生成任务类型
	TypeGenerateVideo = "task:generate"

	defaultQueue   = "default"
	defaultTimeout = 2 * time.Hour
)

// GeneratePayload 视频生成任务载荷
type GeneratePayload struct {
	TaskID     string `json:"task_id"`
	StoryTopic string `json:"story_topic"`
	ArtStyle   string `json:"art_style"`
	Duration   string `json:"duration"`
	Language   string `json:"language"`
	Voice      string `json:"voice"`
}

// Handler 消费端回调
type Handler func(ctx context.Context, p GeneratePayload) error

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func queueName(cfg *config.QueueConfig) string {
	if cfg.Queue == "" {
		return defaultQueue
	}
	return cfg.Queue
}

// Client 任务生产端
type Client struct {
	client  *asynq.Client
	queue   string
	timeout time.Duration
}

// NewClient 创建生产端
func NewClient(redisCfg *config.RedisConfig, queueCfg *config.QueueConfig) *Client {
	timeout := queueCfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		client:  asynq.NewClient(redisOpt(redisCfg)),
		queue:   queueName(queueCfg),
		timeout: timeout,
	}
}

// NewGenerateTask 构造任务，TaskID 去重保证同一任务只会入队一次
func (c *Client) NewGenerateTask(p GeneratePayload) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal payload failed: %w", err)
	}
	opts := []asynq.Option{
		asynq.TaskID(p.TaskID),
		asynq.Queue(c.queue),
		asynq.MaxRetry(0),
		asynq.Timeout(c.timeout),
		asynq.Retention(24 * time.Hour),
	}
	return asynq.NewTask(TypeGenerateVideo, payload), opts, nil
}

// Enqueue 入队视频生成任务
func (c *Client) Enqueue(ctx context.Context, p GeneratePayload) error {
	t, opts, err := c.NewGenerateTask(p)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, t, opts...)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}
	log.Info().Str("task_id", p.TaskID).Str("queue", info.Queue).Msg("task enqueued")
	return nil
}

// Close 关闭生产端
func (c *Client) Close() error {
	return c.client.Close()
}

// Server 任务消费端
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// NewServer 创建消费端并注册处理函数
func NewServer(redisCfg *config.RedisConfig, queueCfg *config.QueueConfig, handle Handler) *Server {
	concurrency := queueCfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(redisOpt(redisCfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queueName(queueCfg): 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateVideo, HandlerFunc(handle))
	return &Server{srv: srv, mux: mux}
}

// HandlerFunc 把 Handler 适配为 asynq 处理函数，载荷非法时不重试
func HandlerFunc(handle Handler) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p GeneratePayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
		}
		if p.TaskID == "" {
			return fmt.Errorf("empty task id: %w", asynq.SkipRetry)
		}
		return handle(ctx, p)
	}
}

// Run 阻塞运行直到收到退出信号
func (s *Server) Run() error {
	return s.srv.Run(s.mux)
}

// Start 非阻塞启动
func (s *Server) Start() error {
	return s.srv.Start(s.mux)
}

// Shutdown 优雅停止
func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

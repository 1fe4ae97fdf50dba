package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"storyreel/internal/config"
)

// RedisCache Redis 封装：JSON 发布订阅与就绪检查
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建 Redis 客户端并校验连接
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// Publish 以 JSON 发布到频道
func (c *RedisCache) Publish(ctx context.Context, channel string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, channel, data).Err()
}

// Subscribe 订阅频道，调用方负责关闭返回的 PubSub
func (c *RedisCache) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return c.client.Subscribe(ctx, channel)
}

// Ping 就绪检查
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// TaskChannelPrefix 任务事件频道前缀
const TaskChannelPrefix = "storyreel:task:"

// TaskChannel 任务事件频道
func TaskChannel(taskID string) string {
	return TaskChannelPrefix + taskID
}

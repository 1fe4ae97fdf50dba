package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"storyreel/internal/pkg/cache"
)

// RedisHub 基于 Redis 发布订阅，API 与 worker 进程之间共享事件
type RedisHub struct {
	cache *cache.RedisCache
}

// NewRedisHub 创建 Redis 事件分发
func NewRedisHub(c *cache.RedisCache) *RedisHub {
	return &RedisHub{cache: c}
}

// Publish 发布到任务频道
func (h *RedisHub) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return h.cache.Publish(ctx, cache.TaskChannel(e.TaskID), e)
}

func (h *RedisHub) Subscribe(ctx context.Context, taskID string) (<-chan Event, func()) {
	ctx, stop := context.WithCancel(ctx)
	ps := h.cache.Subscribe(ctx, cache.TaskChannel(taskID))
	out := make(chan Event, subscriberBuffer)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			stop()
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		defer cancel()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					log.Warn().Err(err).Str("task_id", taskID).Msg("drop malformed event")
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cancel
}

package events

import (
	"context"
	"sync"
	"time"
)

const subscriberBuffer = 32

// MemoryHub 进程内事件分发
type MemoryHub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewMemoryHub 创建进程内事件分发
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[string]map[chan Event]struct{})}
}

// Publish 非阻塞投递，订阅方缓冲区满时丢弃普通事件；
// 终态事件挤掉最早的一条缓冲事件，保证订阅方一定能收到。
func (h *MemoryHub) Publish(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[e.TaskID] {
		select {
		case ch <- e:
			continue
		default:
		}
		if !e.Terminal() {
			continue
		}
		// 持有锁时只有本方在写，腾出一格后必定能写入
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

func (h *MemoryHub) Subscribe(ctx context.Context, taskID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[taskID] == nil {
		h.subs[taskID] = make(map[chan Event]struct{})
	}
	h.subs[taskID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[taskID], ch)
			if len(h.subs[taskID]) == 0 {
				delete(h.subs, taskID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel
}

// Package events 在流水线与状态订阅方之间传递任务进度事件。
//
// 事件发布总是尽力而为：失败只记录日志，不影响任务执行。
package events

import (
	"context"
	"time"
)

// Kind 事件类型
type Kind string

const (
	KindTask  Kind = "task"
	KindScene Kind = "scene"
)

// Event 任务或场景的状态变化
type Event struct {
	Kind         Kind      `json:"kind"`
	TaskID       string    `json:"task_id"`
	Status       string    `json:"status"`
	Progress     float64   `json:"progress"`
	Scene        int       `json:"scene,omitempty"`
	URL          string    `json:"url,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	At           time.Time `json:"at"`
}

// Terminal 是否为任务终态事件
func (e Event) Terminal() bool {
	return e.Kind == KindTask && (e.Status == "completed" || e.Status == "failed")
}

// Hub 事件发布订阅
type Hub interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe 返回事件通道与取消函数，取消后通道会被关闭
	Subscribe(ctx context.Context, taskID string) (<-chan Event, func())
}

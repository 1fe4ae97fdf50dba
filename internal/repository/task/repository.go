package task

import (
	"context"
	"errors"

	"storyreel/internal/model/task"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrInvalidTransition 非法状态流转
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDuplicate 主键冲突
	ErrDuplicate = errors.New("duplicate id")
)

const (
	defaultListLimit = 100
	maxListLimit     = 200
)

// TaskRepository 任务仓库接口
//
// 所有实现在失败时返回 nil 与错误，不会 panic。
type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) (*task.Task, error)
	Get(ctx context.Context, id string) (*task.Task, error)
	Update(ctx context.Context, id string, u task.Update) (*task.Task, error)
	List(ctx context.Context, status task.Status, limit, offset int) ([]*task.Task, int64, error)
}

// ImageRepository 分镜图片仓库接口，ListByTask 按场景顺序返回
type ImageRepository interface {
	Create(ctx context.Context, img *task.SceneImage) (*task.SceneImage, error)
	BatchCreate(ctx context.Context, imgs []*task.SceneImage) error
	Get(ctx context.Context, id string) (*task.SceneImage, error)
	Update(ctx context.Context, id string, u task.ImageUpdate) (*task.SceneImage, error)
	Delete(ctx context.Context, id string) error
	ListByTask(ctx context.Context, taskID string) ([]*task.SceneImage, error)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var allStatuses = []task.Status{task.StatusQueued, task.StatusProcessing, task.StatusCompleted, task.StatusFailed}

// allowedSources 返回允许执行该更新的当前状态集合
//
// 终态任务不再接受状态或进度变更；带状态的更新必须是一次真实迁移，
// 重复进入 processing 会被拒绝，进度不会被重置。
func allowedSources(u task.Update) []task.Status {
	var from []task.Status
	for _, cur := range allStatuses {
		switch {
		case u.Status != nil:
			if cur.CanTransition(*u.Status) {
				from = append(from, cur)
			}
		case u.Progress != nil:
			if !cur.IsTerminal() {
				from = append(from, cur)
			}
		default:
			from = append(from, cur)
		}
	}
	return from
}

func checkTransition(cur task.Status, u task.Update) error {
	for _, s := range allowedSources(u) {
		if s == cur {
			return nil
		}
	}
	return ErrInvalidTransition
}

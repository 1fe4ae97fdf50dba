package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"storyreel/internal/model/task"
)

// MemoryTaskRepo 进程内任务仓库，用于单次命令行运行与测试
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]*task.Task
}

// NewMemoryTaskRepo 创建进程内任务仓库
func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{tasks: make(map[string]*task.Task)}
}

func (r *MemoryTaskRepo) Create(_ context.Context, t *task.Task) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return nil, ErrDuplicate
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	r.tasks[t.ID] = &cp
	return t, nil
}

func (r *MemoryTaskRepo) Get(_ context.Context, id string) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, id string, u task.Update) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := checkTransition(t.Status, u); err != nil {
		return nil, err
	}
	u.Apply(t)
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (r *MemoryTaskRepo) List(_ context.Context, status task.Status, limit, offset int) ([]*task.Task, int64, error) {
	limit, offset = normalizePage(limit, offset)

	r.mu.RLock()
	var list []*task.Task
	for _, t := range r.tasks {
		if status != "" && t.Status != status {
			continue
		}
		cp := *t
		list = append(list, &cp)
	}
	r.mu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	total := int64(len(list))
	if offset >= len(list) {
		return []*task.Task{}, total, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], total, nil
}

// MemoryImageRepo 进程内图片仓库
type MemoryImageRepo struct {
	mu     sync.RWMutex
	images map[string]*task.SceneImage
	seq    map[string]int64
	next   int64
}

// NewMemoryImageRepo 创建进程内图片仓库
func NewMemoryImageRepo() *MemoryImageRepo {
	return &MemoryImageRepo{
		images: make(map[string]*task.SceneImage),
		seq:    make(map[string]int64),
	}
}

func (r *MemoryImageRepo) Create(_ context.Context, img *task.SceneImage) (*task.SceneImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insert(img, time.Now()); err != nil {
		return nil, err
	}
	return img, nil
}

func (r *MemoryImageRepo) BatchCreate(_ context.Context, imgs []*task.SceneImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, img := range imgs {
		if _, ok := r.images[img.ID]; ok {
			return ErrDuplicate
		}
	}
	now := time.Now()
	for _, img := range imgs {
		_ = r.insert(img, now)
	}
	return nil
}

func (r *MemoryImageRepo) insert(img *task.SceneImage, now time.Time) error {
	if _, ok := r.images[img.ID]; ok {
		return ErrDuplicate
	}
	img.CreatedAt = now
	img.UpdatedAt = now
	cp := *img
	cp.URLs = append([]string(nil), img.URLs...)
	r.images[img.ID] = &cp
	r.next++
	r.seq[img.ID] = r.next
	return nil
}

func (r *MemoryImageRepo) Get(_ context.Context, id string) (*task.SceneImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, ok := r.images[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneImage(img), nil
}

func (r *MemoryImageRepo) Update(_ context.Context, id string, u task.ImageUpdate) (*task.SceneImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, ok := r.images[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Apply(img)
	img.UpdatedAt = time.Now()
	return cloneImage(img), nil
}

func (r *MemoryImageRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[id]; !ok {
		return ErrNotFound
	}
	delete(r.images, id)
	delete(r.seq, id)
	return nil
}

func (r *MemoryImageRepo) ListByTask(_ context.Context, taskID string) ([]*task.SceneImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := []*task.SceneImage{}
	for _, img := range r.images {
		if img.TaskID == taskID {
			list = append(list, cloneImage(img))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SceneNumber != list[j].SceneNumber {
			return list[i].SceneNumber < list[j].SceneNumber
		}
		return r.seq[list[i].ID] < r.seq[list[j].ID]
	})
	return list, nil
}

func cloneImage(img *task.SceneImage) *task.SceneImage {
	cp := *img
	cp.URLs = append([]string(nil), img.URLs...)
	return &cp
}

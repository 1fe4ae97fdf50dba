package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"storyreel/internal/model/task"
)

// SQLTaskRepo 基于 gorm 的任务仓库 (MySQL)
type SQLTaskRepo struct {
	db *gorm.DB
}

// NewSQLTaskRepo 创建任务仓库
func NewSQLTaskRepo(db *gorm.DB) *SQLTaskRepo {
	return &SQLTaskRepo{db: db}
}

// Create 创建任务
func (r *SQLTaskRepo) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return t, nil
}

// Get 根据ID查询任务
func (r *SQLTaskRepo) Get(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update 条件更新，当前状态不允许该流转时返回 ErrInvalidTransition
func (r *SQLTaskRepo) Update(ctx context.Context, id string, u task.Update) (*task.Task, error) {
	fields := u.Fields()
	fields["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).
		Model(&task.Task{}).
		Where("id = ? AND status IN ?", id, allowedSources(u)).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}

	// updated_at 每次都会变化，RowsAffected 为 0 说明条件未命中
	t, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	return t, nil
}

// List 按状态筛选，创建时间倒序分页
func (r *SQLTaskRepo) List(ctx context.Context, status task.Status, limit, offset int) ([]*task.Task, int64, error) {
	limit, offset = normalizePage(limit, offset)

	q := r.db.WithContext(ctx).Model(&task.Task{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	list := []*task.Task{}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// SQLImageRepo 基于 gorm 的图片仓库
type SQLImageRepo struct {
	db *gorm.DB
}

// NewSQLImageRepo 创建图片仓库
func NewSQLImageRepo(db *gorm.DB) *SQLImageRepo {
	return &SQLImageRepo{db: db}
}

func (r *SQLImageRepo) Create(ctx context.Context, img *task.SceneImage) (*task.SceneImage, error) {
	if err := r.db.WithContext(ctx).Create(img).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return img, nil
}

// BatchCreate 单事务批量插入
func (r *SQLImageRepo) BatchCreate(ctx context.Context, imgs []*task.SceneImage) error {
	if len(imgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&imgs).Error
	})
}

func (r *SQLImageRepo) Get(ctx context.Context, id string) (*task.SceneImage, error) {
	var img task.SceneImage
	if err := r.db.WithContext(ctx).First(&img, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *SQLImageRepo) Update(ctx context.Context, id string, u task.ImageUpdate) (*task.SceneImage, error) {
	fields := u.Fields()
	// map 更新不会经过 serializer，手动编码
	if u.URLs != nil {
		raw, err := json.Marshal(*u.URLs)
		if err != nil {
			return nil, err
		}
		fields["urls"] = string(raw)
	}
	fields["updated_at"] = time.Now()

	if err := r.db.WithContext(ctx).Model(&task.SceneImage{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *SQLImageRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&task.SceneImage{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLImageRepo) ListByTask(ctx context.Context, taskID string) ([]*task.SceneImage, error) {
	list := []*task.SceneImage{}
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("scene_number ASC").
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

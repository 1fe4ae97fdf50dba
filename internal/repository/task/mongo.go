package task

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storyreel/internal/model/task"
)

// MongoTaskRepo 基于 MongoDB 的任务仓库
type MongoTaskRepo struct {
	coll *mongo.Collection
}

// NewMongoTaskRepo 创建任务仓库
func NewMongoTaskRepo(db *mongo.Database) *MongoTaskRepo {
	var t task.Task
	return &MongoTaskRepo{coll: db.Collection(t.Collection())}
}

// Create 创建任务
func (r *MongoTaskRepo) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return t, nil
}

// Get 根据ID查询任务
func (r *MongoTaskRepo) Get(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update 条件更新，当前状态不允许该流转时返回 ErrInvalidTransition
func (r *MongoTaskRepo) Update(ctx context.Context, id string, u task.Update) (*task.Task, error) {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range u.Fields() {
		set[k] = v
	}
	filter := bson.M{"id": id, "status": bson.M{"$in": allowedSources(u)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t task.Task
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	// 区分不存在与状态不匹配
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrInvalidTransition
}

// List 按状态筛选，创建时间倒序分页
func (r *MongoTaskRepo) List(ctx context.Context, status task.Status, limit, offset int) ([]*task.Task, int64, error) {
	limit, offset = normalizePage(limit, offset)

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	list := []*task.Task{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// MongoImageRepo 基于 MongoDB 的图片仓库
type MongoImageRepo struct {
	coll *mongo.Collection
}

// NewMongoImageRepo 创建图片仓库
func NewMongoImageRepo(db *mongo.Database) *MongoImageRepo {
	var img task.SceneImage
	return &MongoImageRepo{coll: db.Collection(img.Collection())}
}

func (r *MongoImageRepo) Create(ctx context.Context, img *task.SceneImage) (*task.SceneImage, error) {
	now := time.Now()
	img.CreatedAt = now
	img.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, img); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return img, nil
}

// BatchCreate 有序批量插入
func (r *MongoImageRepo) BatchCreate(ctx context.Context, imgs []*task.SceneImage) error {
	if len(imgs) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(imgs))
	for _, img := range imgs {
		img.CreatedAt = now
		img.UpdatedAt = now
		docs = append(docs, img)
	}
	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

func (r *MongoImageRepo) Get(ctx context.Context, id string) (*task.SceneImage, error) {
	var img task.SceneImage
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&img); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *MongoImageRepo) Update(ctx context.Context, id string, u task.ImageUpdate) (*task.SceneImage, error) {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range u.Fields() {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var img task.SceneImage
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&img); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *MongoImageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByTask 按场景号、创建时间升序
func (r *MongoImageRepo) ListByTask(ctx context.Context, taskID string) ([]*task.SceneImage, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "scene_number", Value: 1},
		{Key: "created_at", Value: 1},
	})
	cur, err := r.coll.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []*task.SceneImage{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

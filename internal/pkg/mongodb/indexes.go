package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"storyreel/internal/model/task"
)

// EnsureIndexes 创建任务与场景图片集合的索引，在应用启动时调用
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return EnsureAllIndexes(ctx, db,
		&task.Task{},
		&task.SceneImage{},
	)
}

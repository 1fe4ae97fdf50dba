package task

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SceneImage 分镜图片记录，每个场景一条
type SceneImage struct {
	ID             string    `bson:"id" json:"id" gorm:"primaryKey;size:36"`
	TaskID         string    `bson:"task_id" json:"task_id" gorm:"size:36;index:idx_task_scene,priority:1"`
	SceneNumber    int       `bson:"scene_number" json:"scene_number" gorm:"index:idx_task_scene,priority:2"`
	URLs           []string  `bson:"urls" json:"urls" gorm:"serializer:json;type:text"` // 0 或 1 个
	Subtitles      string    `bson:"subtitles" json:"subtitles" gorm:"type:text"`
	EnhancedPrompt string    `bson:"enhanced_prompt" json:"enhanced_prompt" gorm:"type:text"`
	Status         Status    `bson:"status" json:"status" gorm:"size:16"`
	ErrorMessage   string    `bson:"error_message,omitempty" json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// Collection 返回集合名称
func (s *SceneImage) Collection() string { return "scene_images" }

// TableName gorm 表名
func (SceneImage) TableName() string { return "scene_images" }

// EnsureIndexes 创建和维护索引
func (s *SceneImage) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(s.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "scene_number", Value: 1}},
			Options: options.Index().SetName("idx_task_scene"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// ImageUpdate 图片记录的部分更新
type ImageUpdate struct {
	URLs           *[]string
	EnhancedPrompt *string
	Status         *Status
	ErrorMessage   *string
}

// Fields 返回按存储字段名展开的更新集合
func (u ImageUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if u.URLs != nil {
		fields["urls"] = *u.URLs
	}
	if u.EnhancedPrompt != nil {
		fields["enhanced_prompt"] = *u.EnhancedPrompt
	}
	if u.Status != nil {
		fields["status"] = *u.Status
	}
	if u.ErrorMessage != nil {
		fields["error_message"] = *u.ErrorMessage
	}
	return fields
}

// Apply 把更新写到内存对象上
func (u ImageUpdate) Apply(img *SceneImage) {
	if u.URLs != nil {
		img.URLs = append([]string(nil), (*u.URLs)...)
	}
	if u.EnhancedPrompt != nil {
		img.EnhancedPrompt = *u.EnhancedPrompt
	}
	if u.Status != nil {
		img.Status = *u.Status
	}
	if u.ErrorMessage != nil {
		img.ErrorMessage = *u.ErrorMessage
	}
}

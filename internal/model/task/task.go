package task

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Status 任务状态
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal 是否为终态
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid 是否为已知状态
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition 只允许 queued→processing→{completed,failed}，原地不算迁移
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	}
	return false
}

// Duration 视频时长档位
const (
	DurationShort = "short"
	DurationLong  = "long"
)

// Task 一次视频生成任务
type Task struct {
	ID               string    `bson:"id" json:"id" gorm:"primaryKey;size:36"`
	Status           Status    `bson:"status" json:"status" gorm:"size:16;index:idx_status"`
	Progress         float64   `bson:"progress" json:"progress"`
	StoryTopic       string    `bson:"story_topic" json:"story_topic" gorm:"size:255"`
	ArtStyle         string    `bson:"art_style" json:"art_style" gorm:"size:255"`
	Duration         string    `bson:"duration" json:"duration" gorm:"size:16"`
	Language         string    `bson:"language" json:"language" gorm:"size:64"`
	Voice            string    `bson:"voice" json:"voice" gorm:"size:64"`
	StoryTitle       string    `bson:"story_title,omitempty" json:"story_title,omitempty" gorm:"size:512"`
	StoryDescription string    `bson:"story_description,omitempty" json:"story_description,omitempty" gorm:"type:text"`
	StoryText        string    `bson:"story_text,omitempty" json:"story_text,omitempty" gorm:"type:text"`
	URL              string    `bson:"url,omitempty" json:"url,omitempty" gorm:"size:1024"`
	ErrorMessage     string    `bson:"error_message,omitempty" json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at" gorm:"index:idx_created"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// Collection 返回集合名称
func (t *Task) Collection() string { return "video_tasks" }

// TableName gorm 表名
func (Task) TableName() string { return "video_tasks" }

// EnsureIndexes 创建和维护索引
func (t *Task) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(t.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_status_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// Update 任务的部分更新，nil 字段不修改
type Update struct {
	Status           *Status
	Progress         *float64
	StoryTitle       *string
	StoryDescription *string
	StoryText        *string
	URL              *string
	ErrorMessage     *string
}

// Fields 返回按存储字段名展开的更新集合
func (u Update) Fields() map[string]any {
	fields := map[string]any{}
	if u.Status != nil {
		fields["status"] = *u.Status
	}
	if u.Progress != nil {
		fields["progress"] = *u.Progress
	}
	if u.StoryTitle != nil {
		fields["story_title"] = *u.StoryTitle
	}
	if u.StoryDescription != nil {
		fields["story_description"] = *u.StoryDescription
	}
	if u.StoryText != nil {
		fields["story_text"] = *u.StoryText
	}
	if u.URL != nil {
		fields["url"] = *u.URL
	}
	if u.ErrorMessage != nil {
		fields["error_message"] = *u.ErrorMessage
	}
	return fields
}

// Apply 把更新写到内存对象上
func (u Update) Apply(t *Task) {
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Progress != nil {
		t.Progress = *u.Progress
	}
	if u.StoryTitle != nil {
		t.StoryTitle = *u.StoryTitle
	}
	if u.StoryDescription != nil {
		t.StoryDescription = *u.StoryDescription
	}
	if u.StoryText != nil {
		t.StoryText = *u.StoryText
	}
	if u.URL != nil {
		t.URL = *u.URL
	}
	if u.ErrorMessage != nil {
		t.ErrorMessage = *u.ErrorMessage
	}
}

// Ptr 取地址辅助
func Ptr[T any](v T) *T { return &v }

// RoundProgress 进度保留一位小数并限制在 [0,1]
func RoundProgress(p float64) float64 {
	p = math.Round(p*10) / 10
	return math.Max(0, math.Min(1, p))
}

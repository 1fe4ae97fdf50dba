package video

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storyreel/internal/model/task"
	httputil "storyreel/internal/pkg/http"
	taskrepo "storyreel/internal/repository/task"
	"storyreel/internal/service"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// TaskInfo 任务信息（用于响应）
type TaskInfo struct {
	TaskID           string  `json:"task_id"`                     // 任务ID
	Status           string  `json:"status"`                      // queued/processing/completed/failed
	Progress         float64 `json:"progress"`                    // 0~1
	StoryTopic       string  `json:"story_topic"`                 // 主题
	ArtStyle         string  `json:"art_style"`                   // 画风
	Duration         string  `json:"duration"`                    // short/long
	Language         string  `json:"language"`                    // 语言
	Voice            string  `json:"voice"`                       // 旁白音色
	StoryTitle       string  `json:"story_title,omitempty"`       // 故事标题
	StoryDescription string  `json:"story_description,omitempty"` // 故事描述
	StoryText        string  `json:"story_text,omitempty"`        // 故事正文
	URL              string  `json:"url,omitempty"`               // 成片地址，仅 completed
	ErrorMessage     string  `json:"error_message,omitempty"`     // 错误信息，仅 failed
	CreatedAt        string  `json:"created_at"`                  // 创建时间
	UpdatedAt        string  `json:"updated_at"`                  // 更新时间
}

// ImageInfo 场景图片信息
type ImageInfo struct {
	ImageID        string   `json:"image_id"`
	SceneNumber    int      `json:"scene_number"`
	URLs           []string `json:"urls"`
	Subtitles      string   `json:"subtitles"`
	EnhancedPrompt string   `json:"enhanced_prompt,omitempty"`
	Status         string   `json:"status"`
	ErrorMessage   string   `json:"error_message,omitempty"`
}

func toTaskInfo(t *task.Task) TaskInfo {
	return TaskInfo{
		TaskID:           t.ID,
		Status:           string(t.Status),
		Progress:         t.Progress,
		StoryTopic:       t.StoryTopic,
		ArtStyle:         t.ArtStyle,
		Duration:         t.Duration,
		Language:         t.Language,
		Voice:            t.Voice,
		StoryTitle:       t.StoryTitle,
		StoryDescription: t.StoryDescription,
		StoryText:        t.StoryText,
		URL:              t.URL,
		ErrorMessage:     t.ErrorMessage,
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        t.UpdatedAt.Format(time.RFC3339),
	}
}

// ToImageInfo 将 SceneImage 转换为响应结构
func ToImageInfo(img *task.SceneImage) ImageInfo {
	urls := img.URLs
	if urls == nil {
		urls = []string{}
	}
	return ImageInfo{
		ImageID:        img.ID,
		SceneNumber:    img.SceneNumber,
		URLs:           urls,
		Subtitles:      img.Subtitles,
		EnhancedPrompt: img.EnhancedPrompt,
		Status:         string(img.Status),
		ErrorMessage:   img.ErrorMessage,
	}
}

// FailWithError 按错误类型映射 HTTP 状态与业务码
func FailWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidParam, "Invalid request", err.Error())
	case errors.Is(err, taskrepo.ErrNotFound):
		httputil.Fail(c, http.StatusNotFound, httputil.CodeNotFound, "Not found")
	case errors.Is(err, service.ErrTaskBusy):
		httputil.Fail(c, http.StatusConflict, httputil.CodeConflict, err.Error())
	default:
		httputil.Fail(c, http.StatusInternalServerError, httputil.CodeInternal, "Internal error", err.Error())
	}
}

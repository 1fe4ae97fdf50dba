package video

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "storyreel/internal/pkg/http"
	"storyreel/internal/service"
)

// CreateVideoRequest 创建视频任务请求
type CreateVideoRequest struct {
	StoryTopic string `json:"story_topic" binding:"required"` // 故事主题（必填）
	ArtStyle   string `json:"art_style" binding:"required"`   // 画风（必填）
	Duration   string `json:"duration" binding:"required"`    // short 或 long
	Language   string `json:"language"`                       // 默认 English
	Voice      string `json:"voice"`                          // alloy/echo/fable/onyx/nova/shimmer，默认 alloy
}

// CreateVideoResponseData 创建视频任务响应数据
type CreateVideoResponseData struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// CreateVideo 创建视频生成任务
// @Summary      创建视频任务
// @Description  创建 queued 状态的任务并异步执行，通过查询接口或 websocket 获取进度
// @Tags         视频任务
// @Accept       json
// @Produce      json
// @Param        request  body      CreateVideoRequest  true  "创建请求"
// @Success      202      {object}  httputil.SuccessResponse{data=CreateVideoResponseData}
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /api/v1/videos [post]
func (h *Handler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidRequest, "Invalid request body", err.Error())
		return
	}
	if req.Language == "" {
		req.Language = "English"
	}
	if req.Voice == "" {
		req.Voice = "alloy"
	}

	t, err := h.taskService.CreateTask(c.Request.Context(), service.CreateTaskInput{
		StoryTopic: req.StoryTopic,
		ArtStyle:   req.ArtStyle,
		Duration:   req.Duration,
		Language:   req.Language,
		Voice:      req.Voice,
	})
	if err != nil {
		FailWithError(c, err)
		return
	}

	httputil.OK(c, http.StatusAccepted, CreateVideoResponseData{
		TaskID: t.ID,
		Status: string(t.Status),
	})
}

package video

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "storyreel/internal/pkg/http"
	"storyreel/internal/service"
)

// GetVideoRequest 路径参数
type GetVideoRequest struct {
	TaskID string `uri:"task_id" binding:"required"`
}

// GetVideoResponseData 任务详情
type GetVideoResponseData struct {
	TaskInfo
	Images []ImageInfo `json:"images"`
}

func toDetail(d *service.TaskDetail) GetVideoResponseData {
	images := make([]ImageInfo, len(d.Images))
	for i, img := range d.Images {
		images[i] = ToImageInfo(img)
	}
	return GetVideoResponseData{TaskInfo: toTaskInfo(d.Task), Images: images}
}

// GetVideo 查询任务状态与场景图片
// @Summary      任务详情
// @Tags         视频任务
// @Produce      json
// @Param        task_id  path      string  true  "任务ID"
// @Success      200      {object}  httputil.SuccessResponse{data=GetVideoResponseData}
// @Failure      404      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /api/v1/videos/{task_id} [get]
func (h *Handler) GetVideo(c *gin.Context) {
	var req GetVideoRequest
	if err := c.ShouldBindUri(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidParam, "Invalid task_id", err.Error())
		return
	}

	detail, err := h.taskService.GetTask(c.Request.Context(), req.TaskID)
	if err != nil {
		FailWithError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, toDetail(detail))
}

package video

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storyreel/internal/model/task"
	httputil "storyreel/internal/pkg/http"
)

// ListVideosRequest 列表查询参数
type ListVideosRequest struct {
	Status string `form:"status"` // 按状态过滤（可选）
	Limit  int    `form:"limit"`  // 默认 100，最大 200
	Offset int    `form:"offset"`
}

// ListVideosResponseData 列表响应数据
type ListVideosResponseData struct {
	Tasks  []TaskInfo `json:"tasks"`
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// ListVideos 查询任务列表
// @Summary      任务列表
// @Tags         视频任务
// @Produce      json
// @Param        status  query     string  false  "状态"
// @Param        limit   query     int     false  "数量"
// @Param        offset  query     int     false  "偏移"
// @Success      200     {object}  httputil.SuccessResponse{data=ListVideosResponseData}
// @Failure      400     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /api/v1/videos [get]
func (h *Handler) ListVideos(c *gin.Context) {
	var req ListVideosRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidParam, "Invalid query", err.Error())
		return
	}

	res, err := h.taskService.ListTasks(c.Request.Context(), task.Status(req.Status), req.Limit, req.Offset)
	if err != nil {
		FailWithError(c, err)
		return
	}

	infos := make([]TaskInfo, len(res.Tasks))
	for i, t := range res.Tasks {
		infos[i] = toTaskInfo(t)
	}
	httputil.OK(c, http.StatusOK, ListVideosResponseData{
		Tasks:  infos,
		Total:  res.Total,
		Limit:  res.Limit,
		Offset: res.Offset,
	})
}

package video

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "storyreel/internal/pkg/http"
)

// ImageRequest 路径参数
type ImageRequest struct {
	ImageID string `uri:"image_id" binding:"required"`
}

// GetImage 查询场景图片状态
// @Summary      场景图片详情
// @Tags         场景图片
// @Produce      json
// @Param        image_id  path      string  true  "图片ID"
// @Success      200       {object}  httputil.SuccessResponse{data=ImageInfo}
// @Failure      404       {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /api/v1/images/{image_id} [get]
func (h *Handler) GetImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindUri(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidParam, "Invalid image_id", err.Error())
		return
	}

	img, err := h.taskService.GetImage(c.Request.Context(), req.ImageID)
	if err != nil {
		FailWithError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, ToImageInfo(img))
}

// RegenerateImage 用保存的提示词重新生成场景图片
// @Summary      重新生成场景图片
// @Description  任务结束后才能调用，生成在后台进行
// @Tags         场景图片
// @Produce      json
// @Param        image_id  path      string  true  "图片ID"
// @Success      202       {object}  httputil.SuccessResponse{data=ImageInfo}
// @Failure      404       {object}  ErrorResponse
// @Failure      409       {object}  ErrorResponse  "任务仍在执行"
// @Security     BearerAuth
// @Router       /api/v1/images/{image_id}/regenerate [post]
func (h *Handler) RegenerateImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindUri(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidParam, "Invalid image_id", err.Error())
		return
	}

	img, err := h.taskService.RegenerateImage(c.Request.Context(), req.ImageID)
	if err != nil {
		FailWithError(c, err)
		return
	}
	httputil.OK(c, http.StatusAccepted, ToImageInfo(img))
}

// DeleteImage 删除场景图片记录
// @Summary      删除场景图片
// @Tags         场景图片
// @Produce      json
// @Param        image_id  path      string  true  "图片ID"
// @Success      200       {object}  httputil.SuccessResponse
// @Failure      404       {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /api/v1/images/{image_id} [delete]
func (h *Handler) DeleteImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindUri(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidParam, "Invalid image_id", err.Error())
		return
	}

	if err := h.taskService.DeleteImage(c.Request.Context(), req.ImageID); err != nil {
		FailWithError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, gin.H{"image_id": req.ImageID})
}

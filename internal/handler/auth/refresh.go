package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	httputil "storyreel/internal/pkg/http"
)

// Refresh 刷新Token
// @Summary      刷新Token
// @Description  使用仍然有效的Bearer Token换取新的Access Token
// @Tags         认证
// @Produce      json
// @Param        Authorization  header    string  true  "Bearer {token}"
// @Success      200            {object}  httputil.SuccessResponse{data=TokenResponseData}
// @Failure      401            {object}  ErrorResponse
// @Router       /api/v1/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		httputil.Fail(c, http.StatusUnauthorized, httputil.CodeUnauthorized, "未授权")
		return
	}

	fresh, err := h.jwt.Refresh(strings.TrimSpace(token))
	if err != nil {
		httputil.Fail(c, http.StatusUnauthorized, httputil.CodeTokenInvalid, "Token无效或已过期")
		return
	}
	httputil.OK(c, http.StatusOK, h.tokenData(fresh))
}

package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "storyreel/internal/pkg/http"
	"storyreel/internal/pkg/password"
)

// TokenRequest 登录请求
type TokenRequest struct {
	Username string `json:"username" binding:"required"` // 用户名（必填）
	Password string `json:"password" binding:"required"` // 密码（必填）
}

// Token 用户名密码换取 Access Token
// @Summary      获取Token
// @Description  使用管理员用户名和密码换取JWT Access Token
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request  body      TokenRequest  true  "登录请求"
// @Success      200      {object}  httputil.SuccessResponse{data=TokenResponseData}
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /api/v1/auth/token [post]
func (h *Handler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidRequest, "Invalid request body", err.Error())
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	if !userOK || !password.Verify(req.Password, h.passwordHash) {
		log.Warn().Str("username", req.Username).Str("client_ip", c.ClientIP()).Msg("login rejected")
		httputil.Fail(c, http.StatusUnauthorized, httputil.CodeUnauthorized, "用户名或密码错误")
		return
	}

	token, err := h.jwt.GenerateToken(req.Username)
	if err != nil {
		httputil.Fail(c, http.StatusInternalServerError, httputil.CodeInternal, "failed to issue token", err.Error())
		return
	}
	httputil.OK(c, http.StatusOK, h.tokenData(token))
}

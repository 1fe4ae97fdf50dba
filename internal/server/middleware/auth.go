package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storyreel/internal/pkg/ctxutil"
	httputil "storyreel/internal/pkg/http"
	"storyreel/internal/pkg/jwt"
)

// Auth JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后注入用户名到 context
func Auth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.Fail(c, http.StatusUnauthorized, httputil.CodeUnauthorized, "未授权")
			return
		}

		// 提取 Token（Bearer {token}）
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.Fail(c, http.StatusUnauthorized, httputil.CodeUnauthorized, "Invalid authorization header")
			return
		}

		claims, err := jwtUtil.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			msg := "Token无效"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token已过期"
			}
			httputil.Fail(c, http.StatusUnauthorized, httputil.CodeTokenInvalid, msg)
			return
		}

		ctx := ctxutil.WithPrincipal(c.Request.Context(), claims.Username())
		c.Request = c.Request.WithContext(ctx)
		c.Set("principal", claims.Username())

		c.Next()
	}
}

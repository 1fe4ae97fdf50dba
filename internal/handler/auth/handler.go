package auth

import (
	"storyreel/internal/pkg/jwt"
)

// Handler 认证处理器
//
// 只有一个配置中的管理员账号，密码以 bcrypt 哈希保存。
type Handler struct {
	jwt          *jwt.JWT
	username     string
	passwordHash string
}

// NewHandler 创建认证处理器
func NewHandler(jwtUtil *jwt.JWT, username, passwordHash string) *Handler {
	return &Handler{
		jwt:          jwtUtil,
		username:     username,
		passwordHash: passwordHash,
	}
}

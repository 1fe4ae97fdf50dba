package id

import (
	"github.com/google/uuid"
)

// New 生成新的任务/图片ID（UUID v4 字符串）
func New() string {
	return uuid.NewString()
}

// IsValid 验证ID是否为合法UUID
func IsValid(id string) bool {
	return uuid.Validate(id) == nil
}

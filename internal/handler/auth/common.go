package auth

import (
	httputil "storyreel/internal/pkg/http"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// TokenResponseData 令牌响应数据
type TokenResponseData struct {
	AccessToken string `json:"access_token"` // Access Token
	ExpiresIn   int    `json:"expires_in"`   // 过期时间（秒）
	TokenType   string `json:"token_type"`   // Token类型：Bearer
}

func (h *Handler) tokenData(token string) TokenResponseData {
	return TokenResponseData{
		AccessToken: token,
		ExpiresIn:   int(h.jwt.Expiration().Seconds()),
		TokenType:   "Bearer",
	}
}

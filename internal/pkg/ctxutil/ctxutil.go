package ctxutil

import "context"

type principalKeyType struct{}
type requestIDKeyType struct{}

var (
	principalKey = principalKeyType{}
	requestIDKey = requestIDKeyType{}
)

// WithPrincipal 注入已认证的用户名，由认证中间件调用
func WithPrincipal(ctx context.Context, username string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey, username)
}

// GetPrincipal 从 context 中读取用户名
func GetPrincipal(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	name, ok := ctx.Value(principalKey).(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// WithRequestID 注入请求ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID 读取请求ID，不存在时返回空串
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(requestIDKey).(string)
	return rid
}

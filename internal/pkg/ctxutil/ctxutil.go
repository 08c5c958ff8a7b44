package ctxutil

import "context"

// 私有 key 类型，避免与其他 context key 冲突
type (
	userIDKeyType    struct{}
	requestIDKeyType struct{}
)

var (
	userIDKey    = userIDKeyType{}
	requestIDKey = requestIDKeyType{}
)

// WithUserID 将 userID 注入到 context 中
// 说明：在认证中间件解析 JWT 成功后调用：
//
//	ctx := ctxutil.WithUserID(c.Request.Context(), claims.UserID)
//	c.Request = c.Request.WithContext(ctx)
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID 从 context 中解析 userID
func GetUserID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// WithRequestID 将请求ID注入到 context 中（RequestID 中间件使用）
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID 从 context 中解析请求ID
func GetRequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

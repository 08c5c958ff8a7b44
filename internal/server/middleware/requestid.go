package middleware

import (
	"github.com/gin-gonic/gin"

	"atelier/internal/pkg/ctxutil"
	"atelier/internal/pkg/id"
)

const requestIDHeader = "X-Request-ID"

// RequestID 请求ID中间件
// 透传调用方带来的请求ID，没有则生成一个，并注入 context 供日志关联
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = id.New()
		}

		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

package middleware

import (
	"Marquee/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TraceHeader     = "X-Trace-ID"
	maxTraceIDBytes = 64
)

// TraceMiddleware 沿用上游传入的 trace_id，缺失或格式不合法时重新生成
// 握手请求的 trace_id 只用于访问日志，连接建立后改用连接 ID
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if !validTraceID(traceID) {
			traceID = uuid.NewString()
		}

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Header(TraceHeader, traceID)
		c.Next()
	}
}

// validTraceID 只接受字母数字与 - _ .，防止把任意内容写入日志
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDBytes {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.':
		default:
			return false
		}
	}
	return true
}

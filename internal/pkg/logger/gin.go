package logger

import (
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupGin 访问日志与 panic 恢复，都经由 slog 输出，与业务日志共享 trace_id 和远程上报
// skipPaths 按路由模板匹配；websocket 握手请求在连接断开后才返回，由 WsHandler 自行记录
func SetupGin(r *gin.Engine, skipPaths ...string) {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if _, ok := skip[c.FullPath()]; ok {
			return
		}
		status := c.Writer.Status()
		level := log.LevelInfo
		if status >= http.StatusInternalServerError {
			level = log.LevelError
		}
		log.Log(c.Request.Context(), level, "GIN_ACCESS",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	})

	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		log.ErrorContext(c.Request.Context(), "GIN_PANIC", "path", c.Request.URL.Path, "panic", err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}

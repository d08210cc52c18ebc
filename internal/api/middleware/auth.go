package middleware

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/pkg/response"
	"Marquee/internal/pkg/security"
	"Marquee/internal/service"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// ChatUserKey gin.Context 中保存握手身份的键
const ChatUserKey = "chat_user"

// AuthMiddleware 握手鉴权：校验 JWT 并把身份写入 Context
// 浏览器 websocket 无法设置请求头，因此同时接受 ?token= 与 Authorization: Bearer
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if tokenString == "" {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			log.WarnContext(c.Request.Context(), "WS 鉴权失败", "err", err)
			response.Error(c, service.UnauthorizedError)
			c.Abort()
			return
		}

		c.Set(ChatUserKey, dto.ChatUser{
			UserID:      claims.UserID,
			DisplayName: claims.Nickname,
			AvatarURL:   claims.Avatar,
		})
		c.Next()
	}
}

// ChatUserFrom 读取 AuthMiddleware 写入的身份
func ChatUserFrom(c *gin.Context) (dto.ChatUser, bool) {
	v, ok := c.Get(ChatUserKey)
	if !ok {
		return dto.ChatUser{}, false
	}
	user, ok := v.(dto.ChatUser)
	return user, ok
}

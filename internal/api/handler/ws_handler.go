package handler

import (
	"Marquee/internal/api/middleware"
	"Marquee/internal/pkg/logger"
	"Marquee/internal/pkg/response"
	"Marquee/internal/pkg/socket"
	"Marquee/internal/service"
	"context"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WsHandler struct {
	router     *service.ChatRouter
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewWsHandler(router *service.ChatRouter, allowedOrigins []string, sendBuffer int) *WsHandler {
	return &WsHandler{
		router:     router,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// Connect 升级为 websocket 后在当前 goroutine 中顺序处理该连接的所有入站事件
func (s *WsHandler) Connect(c *gin.Context) {
	user, ok := middleware.ChatUserFrom(c)
	if !ok {
		response.Error(c, service.UnauthorizedError)
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WarnContext(c.Request.Context(), "WS 协议升级失败", "err", err)
		return
	}
	conn := socket.NewConn(ws, s.sendBuffer)
	go conn.WritePump()
	defer conn.Close()

	// 连接内的日志以连接 ID 作为 trace_id
	ctx := logger.WithTraceID(context.WithoutCancel(c.Request.Context()), conn.ID())

	sess := service.NewSession(conn)
	if err = sess.Authenticate(user); err != nil {
		log.WarnContext(ctx, "WS 身份无效", "err", err)
		return
	}
	if err = s.router.Connect(ctx, sess); err != nil {
		log.ErrorContext(ctx, "WS 连接注册失败", "user_id", user.UserID, "err", err)
		return
	}
	log.InfoContext(ctx, "用户 WS 连接已建立", "user_id", user.UserID)

	conn.ReadPump(func(event string, data []byte) {
		s.router.Dispatch(ctx, sess, event, data)
	})

	s.router.Disconnect(ctx, sess)
	log.InfoContext(ctx, "用户 WS 连接已断开", "user_id", user.UserID)
}

package api

import "Marquee/internal/api/handler"

// HandlersGroup 路由注册所需的全部 handler，由 wire 组装
type HandlersGroup struct {
	WsHandler       *handler.WsHandler
	PresenceHandler *handler.PresenceHandler
}

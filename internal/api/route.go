package api

import (
	"Marquee/internal/api/config"
	"Marquee/internal/api/middleware"
	"Marquee/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	logger.SetupGin(r, "/api/im")

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		authGroup := apiGroup.Group("")
		authGroup.Use(middleware.AuthMiddleware())
		{
			authGroup.GET("/im", group.WsHandler.Connect)
			authGroup.GET("/presence/contacts", group.PresenceHandler.GetContactsPresence)
			authGroup.GET("/presence/:user_id", group.PresenceHandler.GetPresence)
		}
	}

	return r
}

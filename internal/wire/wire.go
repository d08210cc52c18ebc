package wire

import (
	"Marquee/internal/api"
	"Marquee/internal/api/config"
	"Marquee/internal/api/handler"
	"Marquee/internal/job"
	"Marquee/internal/pkg/cron"
	"Marquee/internal/pkg/kafka"
	"Marquee/internal/repository"
	"Marquee/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router         *gin.Engine
	DB             *gorm.DB
	ChatRouter     *service.ChatRouter
	KafkaManager   *kafka.ConsumerManager // 未启用 Kafka 时为 nil
	MirrorProducer *kafka.MirrorProducer  // 未启用 Kafka 时为 nil
	CronMgr        *cron.Manager
}

func BuildApplication(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (*ApplicationContainer, error) {
	conversationRepo := repository.NewConversationRepo(db)
	chatMessageRepo := repository.NewChatMessageRepo(db)
	userPresenceRepo := repository.NewUserPresenceRepo(db)
	userFollowRepo := repository.NewUserFollowRepo(db)

	chatCfg := cfg.Chat
	registry := service.NewSessionRegistry()
	contactService := service.NewContactService(rdb, userFollowRepo, chatCfg.ContactLimit)
	presenceService := service.NewPresenceService(rdb, registry, contactService)
	membershipService := service.NewMembershipService(rdb, service.NewRooms(), chatCfg.LegacyPeerKeyFallback)
	messageService := service.NewMessageService(rdb, chatCfg.HistoryLimit)
	typingService := service.NewTypingService(rdb, chatCfg.TypingTTL)

	app := &ApplicationContainer{DB: db}

	var mirror service.MirrorPublisher = service.NopMirror{}
	if cfg.Kafka.Enable {
		producer, err := kafka.NewMirrorProducer(cfg)
		if err != nil {
			return nil, err
		}
		kafkaMgr, err := kafka.NewConsumerManager(cfg, rdb, conversationRepo, chatMessageRepo)
		if err != nil {
			_ = producer.Close()
			return nil, err
		}
		mirror = producer
		app.MirrorProducer = producer
		app.KafkaManager = kafkaMgr
	} else {
		log.Warn("Kafka disabled, SQL mirror of chat events is off")
	}

	chatRouter := service.NewChatRouter(registry, presenceService, membershipService, messageService, typingService, mirror)
	app.ChatRouter = chatRouter

	handlers := &api.HandlersGroup{
		WsHandler:       handler.NewWsHandler(chatRouter, cfg.Server.AllowedOrigins, chatCfg.SendBuffer),
		PresenceHandler: handler.NewPresenceHandler(presenceService, contactService),
	}
	app.Router = api.SetupRouter(handlers, cfg.Server)

	app.CronMgr = cron.NewCronManager(
		chatCfg,
		job.NewTypingSweepJob(chatRouter),
		job.NewPresenceSyncJob(rdb, presenceService, userPresenceRepo),
	)

	return app, nil
}

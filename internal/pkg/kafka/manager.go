package kafka

import (
	"Marquee/internal/api/config"
	"Marquee/internal/repository"
	"context"
	log "log/slog"
	"sync"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
)

type consumer struct {
	name    string
	topic   string
	group   sarama.ConsumerGroup
	handler sarama.ConsumerGroupHandler
}

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	consumers []consumer
}

// NewConsumerManager 构造函数
func NewConsumerManager(
	cfg *config.Config,
	rdb redis.UniversalClient,
	conversationRepo repository.ConversationRepo,
	chatMessageRepo repository.ChatMessageRepo,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	mirrorConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaMessageMirror.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	contactConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaUserFollows.GroupID, saramaCfg)
	if err != nil {
		_ = mirrorConsumer.Close()
		return nil, err
	}

	return &ConsumerManager{consumers: []consumer{
		{
			name:    "message mirror",
			topic:   cfg.KafkaMessageMirror.Topic,
			group:   mirrorConsumer,
			handler: NewMessageMirrorHandler(conversationRepo, chatMessageRepo),
		},
		{
			name:    "contact graph",
			topic:   cfg.KafkaUserFollows.Topic,
			group:   contactConsumer,
			handler: NewContactGraphHandler(rdb),
		},
	}}, nil
}

// Start 启动所有消费者，阻塞到 ctx 结束后关闭
func (m *ConsumerManager) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, c := range m.consumers {
		wg.Add(1)
		go func(c consumer) {
			defer wg.Done()
			log.Info("consumer started", "name", c.name, "topic", c.topic)
			for {
				if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
					log.Error("Error from consumer", "name", c.name, "err", err)
				}
				if ctx.Err() != nil {
					return
				}
			}
		}(c)

		go func(c consumer) {
			for err := range c.group.Errors() {
				log.Error("consumer group error", "name", c.name, "err", err)
			}
		}(c)
	}

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	for _, c := range m.consumers {
		if err := c.group.Close(); err != nil {
			log.Error("Failed to close consumer", "name", c.name, "err", err)
		}
	}
	wg.Wait()

	return nil
}

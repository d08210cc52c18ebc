package kafka

import (
	"Marquee/internal/api/config"
	"Marquee/internal/api/dto"
	"context"
	"errors"
	log "log/slog"
	"sync"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

var ErrProducerClosed = errors.New("mirror producer closed")

// MirrorProducer 把镜像事件异步写入 Kafka，key 为会话 ID，同一会话的事件落在同一分区
type MirrorProducer struct {
	producer sarama.AsyncProducer
	topic    string

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewMirrorProducer(cfg *config.Config) (*MirrorProducer, error) {
	producer, err := sarama.NewAsyncProducer(cfg.Kafka.Brokers, newProducerConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	return newMirrorProducer(producer, cfg.KafkaMessageMirror.Topic), nil
}

func newMirrorProducer(producer sarama.AsyncProducer, topic string) *MirrorProducer {
	p := &MirrorProducer{producer: producer, topic: topic}
	p.wg.Add(1)
	go p.drainErrors()
	return p
}

// Publish 不等待 broker 确认，发送失败在后台记录
func (p *MirrorProducer) Publish(ctx context.Context, ev *dto.MirrorEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.ConversationID),
		Value: sarama.ByteEncoder(data),
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 刷出缓冲中的消息后关闭
func (p *MirrorProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

func (p *MirrorProducer) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		log.Error("mirror produce failed", "topic", perr.Msg.Topic, "err", perr.Err)
	}
}

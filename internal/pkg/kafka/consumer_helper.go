package kafka

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// batchOptions 攒批与重试参数
type batchOptions struct {
	size       int
	timeout    time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
}

var defaultBatch = batchOptions{
	size:       32,
	timeout:    time.Second,
	minBackoff: 100 * time.Millisecond,
	maxBackoff: 5 * time.Second,
}

// pullMessageBatch 按条数或超时攒批，整批处理完成后提交位点
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	return defaultBatch.consume(session, claim, logic)
}

func (o batchOptions) consume(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, o.size)
	ticker := time.NewTicker(o.timeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		o.process(session, batch, logic)
		batch = make([]*sarama.ConsumerMessage, 0, o.size)
	}

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= o.size {
				flush()
				ticker.Reset(o.timeout)
			}
		case <-ticker.C:
			flush()
		case <-session.Context().Done():
			return nil
		}
	}
}

// process 同批消息并发处理，单条失败持续退避重试；会话结束时放弃本批且不提交
func (o batchOptions) process(session sarama.ConsumerGroupSession, batch []*sarama.ConsumerMessage, logic LogicFunc) {
	ctx := session.Context()
	var wg sync.WaitGroup
	for _, msg := range batch {
		wg.Add(1)
		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			o.retry(ctx, m, logic)
		}(msg)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return
	}
	session.MarkMessage(batch[len(batch)-1], "")
	session.Commit()
}

func (o batchOptions) retry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) {
	backoff := o.minBackoff
	for {
		err := logic(ctx, m)
		if err == nil {
			return
		}
		log.Error("process message error", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, o.maxBackoff)
	}
}

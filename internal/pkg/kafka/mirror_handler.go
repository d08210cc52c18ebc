package kafka

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/model"
	"Marquee/internal/pkg/consts"
	"Marquee/internal/pkg/util"
	"Marquee/internal/repository"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

const lastContentMaxLen = 255

// MessageMirrorHandler 消费镜像事件并写入 MySQL
// 同一批消息并发处理，因此每种写入都与到达顺序无关
type MessageMirrorHandler struct {
	conversationRepo repository.ConversationRepo
	chatMessageRepo  repository.ChatMessageRepo
}

func NewMessageMirrorHandler(conversationRepo repository.ConversationRepo, chatMessageRepo repository.ChatMessageRepo) *MessageMirrorHandler {
	return &MessageMirrorHandler{conversationRepo: conversationRepo, chatMessageRepo: chatMessageRepo}
}

func (s *MessageMirrorHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("message mirror consumer setup")
	return nil
}

func (s *MessageMirrorHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("message mirror consumer cleanup")
	return nil
}

func (s *MessageMirrorHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("message mirror process batch error", "err", err)
		return err
	}
	return nil
}

// logic 无法解析的消息直接跳过，存储错误返回给 processBatch 重试
func (s *MessageMirrorHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev dto.MirrorEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		log.Warn("skip undecodable mirror event", "offset", msg.Offset, "err", err)
		return nil
	}
	return s.apply(ctx, &ev)
}

func (s *MessageMirrorHandler) apply(ctx context.Context, ev *dto.MirrorEvent) error {
	switch ev.Type {
	case consts.MirrorMessageCreated, consts.MirrorMessageRead:
		if ev.Message == nil {
			log.Warn("mirror event without message", "type", ev.Type, "message_id", ev.MessageID)
			return nil
		}
		row, err := toChatMessage(ev.Message)
		if err != nil {
			return err
		}
		if err = s.chatMessageRepo.UpsertMessages(ctx, []*model.ChatMessage{row}); err != nil {
			return err
		}
		if ev.Type == consts.MirrorMessageRead {
			return nil
		}
		return s.conversationRepo.TouchConversation(ctx, &model.Conversation{
			ID:            ev.Message.ConversationID,
			LastMessageID: ev.Message.ID,
			LastContent:   util.TruncateRunes(ev.Message.Content, lastContentMaxLen),
			LastSenderID:  ev.Message.SenderID,
			LastMessageAt: ev.Message.Timestamp,
		})
	case consts.MirrorMemberJoined:
		return s.conversationRepo.UpsertMember(ctx, ev.ConversationID, ev.UserID, ev.OccurredAt)
	case consts.MirrorMemberLeft:
		return s.conversationRepo.MarkMemberLeft(ctx, ev.ConversationID, ev.UserID, ev.OccurredAt)
	default:
		log.Warn("unknown mirror event type", "type", ev.Type)
		return nil
	}
}

func toChatMessage(m *dto.Message) (*model.ChatMessage, error) {
	var row model.ChatMessage
	if err := copier.Copy(&row, m); err != nil {
		return nil, errors.Wrapf(err, "copy message %s", m.ID)
	}
	return &row, nil
}

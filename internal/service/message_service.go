package service

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	MaxContentLength = 2000
	markReadRetries  = 5
)

var messageTypes = []string{
	consts.MessageTypeText,
	consts.MessageTypeImage,
	consts.MessageTypeEventShare,
	consts.MessageTypeTicketShare,
}

// MessageService 消息存储：message:<id> 存单条消息，conversation:<id>:messages 保存最近的消息 ID
type MessageService struct {
	rdb          redis.UniversalClient
	historyLimit int64
	nowFn        func() time.Time
}

func NewMessageService(rdb redis.UniversalClient, historyLimit int64) *MessageService {
	if historyLimit <= 0 {
		historyLimit = 1000
	}
	return &MessageService{rdb: rdb, historyLimit: historyLimit, nowFn: time.Now}
}

// Append 校验并写入消息，补全 id/时间戳，发送者自动计入已读
// 列表超过上限时裁掉最旧的 ID，被裁掉的消息记录本身不删除
func (s *MessageService) Append(ctx context.Context, msg *dto.Message) (*dto.Message, error) {
	if msg.Type == "" {
		msg.Type = consts.MessageTypeText
	}
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.nowFn()
	}
	if msg.ID == "" {
		msg.ID = newMessageID(msg.Timestamp)
	}
	if !slices.Contains(msg.ReadBy, msg.SenderID) {
		msg.ReadBy = append([]string{msg.SenderID}, msg.ReadBy...)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	listKey := consts.MessageListKey(msg.ConversationID)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, consts.MessageKey+msg.ID, data, 0)
	pipe.LPush(ctx, listKey, msg.ID)
	pipe.LTrim(ctx, listKey, 0, s.historyLimit-1)
	if _, err = pipe.Exec(ctx); err != nil {
		return nil, storeErr("append message", err)
	}
	return msg, nil
}

// MarkRead 将 userID 加入消息的已读集合，已存在时为幂等空操作
// changed 表示本次调用是否真正修改了 readBy
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID string) (msg *dto.Message, changed bool, err error) {
	key := consts.MessageKey + messageID

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		var m dto.Message
		if err = json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode message %s: %w", messageID, err)
		}
		if slices.Contains(m.ReadBy, userID) {
			msg, changed = &m, false
			return nil
		}
		m.ReadBy = append(m.ReadBy, userID)
		data, err := json.Marshal(&m)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			msg, changed = &m, true
		}
		return err
	}

	for i := 0; i < markReadRetries; i++ {
		err = s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, false, storeErr("mark read", err)
		}
		return msg, changed, nil
	}
	return nil, false, storeErr("mark read", err)
}

// TouchConversation 更新会话的最后消息时间，只作为展示提示
func (s *MessageService) TouchConversation(ctx context.Context, conversationID string, at time.Time) error {
	err := s.rdb.HSet(ctx, consts.ConversationKey+conversationID,
		consts.ConversationLastMessageAtField, at.UnixMilli()).Err()
	return storeErr("touch conversation", err)
}

// LastMessageAt 读取会话最后消息时间，从未有消息时返回零值
func (s *MessageService) LastMessageAt(ctx context.Context, conversationID string) (time.Time, error) {
	v, err := s.rdb.HGet(ctx, consts.ConversationKey+conversationID, consts.ConversationLastMessageAtField).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, storeErr("last message at", err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last_message_at %q: %w", v, err)
	}
	return time.UnixMilli(ms), nil
}

func (s *MessageService) Get(ctx context.Context, messageID string) (*dto.Message, error) {
	raw, err := s.rdb.Get(ctx, consts.MessageKey+messageID).Bytes()
	if err != nil {
		return nil, storeErr("get message", err)
	}
	var m dto.Message
	if err = json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", messageID, err)
	}
	return &m, nil
}

// RecentIDs 会话的最近消息 ID，按新到旧排序
func (s *MessageService) RecentIDs(ctx context.Context, conversationID string) ([]string, error) {
	ids, err := s.rdb.LRange(ctx, consts.MessageListKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, storeErr("recent ids", err)
	}
	return ids, nil
}

// Recent 最近的 limit 条消息，按新到旧排序，跳过已不存在的记录
func (s *MessageService) Recent(ctx context.Context, conversationID string, limit int64) ([]*dto.Message, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	ids, err := s.rdb.LRange(ctx, consts.MessageListKey(conversationID), 0, limit-1).Result()
	if err != nil {
		return nil, storeErr("recent messages", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = consts.MessageKey + id
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storeErr("recent messages", err)
	}
	out := make([]*dto.Message, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var m dto.Message
		if err = json.Unmarshal([]byte(str), &m); err != nil {
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}

func validateMessage(msg *dto.Message) error {
	if msg.ConversationID == "" {
		return validationErr("conversationId 不能为空")
	}
	if msg.SenderID == "" {
		return validationErr("senderId 不能为空")
	}
	n := utf8.RuneCountInString(msg.Content)
	if n < 1 || n > MaxContentLength {
		return validationErr("content 长度需在 1-%d 之间，当前 %d", MaxContentLength, n)
	}
	if !slices.Contains(messageTypes, msg.Type) {
		return validationErr("不支持的消息类型 %q", msg.Type)
	}
	return nil
}

// newMessageID 毫秒时间戳 + 随机串，字典序大致与时间一致
func newMessageID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return strconv.FormatInt(at.UnixMilli(), 10) + "-" + suffix
}

package dto

import (
	"time"

	"github.com/goccy/go-json"
)

// ChatUser 握手阶段由鉴权中间件解析出的身份上下文
type ChatUser struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Envelope 入站帧：{"event": "...", "data": {...}}
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundEnvelope 出站帧
type OutboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Message 聊天消息，除 ReadBy 外不可变
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversationId"`
	SenderID       string         `json:"senderId"`
	SenderName     string         `json:"senderName"`
	SenderAvatar   string         `json:"senderAvatar,omitempty"`
	Content        string         `json:"content"`
	Type           string         `json:"type"` // text, image, event_share, ticket_share
	Metadata       map[string]any `json:"metadata,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	ReadBy         []string       `json:"readBy"`
}

// PresenceRecord presence hash 中的值，离线时 ConnectionHandleID 为 null
type PresenceRecord struct {
	Status             string    `json:"status"`
	LastSeen           time.Time `json:"lastSeen"`
	ConnectionHandleID *string   `json:"connectionHandleId"`
}

// TypingState 单个用户在会话内的输入状态，每条记录独立过期
type TypingState struct {
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	Timestamp      time.Time `json:"timestamp"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// ---- 入站事件 ----

type SendMessageReq struct {
	ConversationID string         `json:"conversationId" validate:"required,max=128,conv_id"`
	Content        string         `json:"content" validate:"required,min=1,max=2000"`
	Type           string         `json:"type" validate:"omitempty,oneof=text image event_share ticket_share"`
	Metadata       map[string]any `json:"metadata"`
}

type TypingStartReq struct {
	ConversationID string `json:"conversationId" validate:"required,max=128,conv_id"`
}

type TypingStopReq struct {
	ConversationID string `json:"conversationId" validate:"required,max=128,conv_id"`
}

type JoinConversationReq struct {
	ConversationID string `json:"conversationId" validate:"required,max=128,conv_id"`
}

type LeaveConversationReq struct {
	ConversationID string `json:"conversationId" validate:"required,max=128,conv_id"`
}

type MarkReadReq struct {
	ConversationID string `json:"conversationId" validate:"required,max=128,conv_id"`
	MessageID      string `json:"messageId" validate:"required,max=128"`
}

type ShareEventReq struct {
	ConversationID string       `json:"conversationId" validate:"required,max=128,conv_id"`
	EventID        string       `json:"eventId" validate:"required,max=128"`
	EventData      *SharedEvent `json:"eventData" validate:"required"`
}

// SharedEvent 被分享的活动，name/date/location 之外的字段原样保留在 Fields 中
type SharedEvent struct {
	Name     string         `json:"name" validate:"required,max=200"`
	Date     string         `json:"date" validate:"required"`
	Location string         `json:"location" validate:"required"`
	Fields   map[string]any `json:"-"`
}

func (e *SharedEvent) UnmarshalJSON(b []byte) error {
	type alias SharedEvent
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*e = SharedEvent(a)
	e.Fields = fields
	return nil
}

// ---- 出站事件 ----

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
}

type MessageReadPayload struct {
	ConversationID string   `json:"conversationId"`
	MessageID      string   `json:"messageId"`
	ReadBy         []string `json:"readBy"`
}

type PresencePayload struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MirrorEvent 投递到 Kafka 的镜像事件，由消费者异步写入 MySQL
type MirrorEvent struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId,omitempty"`
	MessageID      string    `json:"messageId,omitempty"`
	Message        *Message  `json:"message,omitempty"`
	ReadBy         []string  `json:"readBy,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

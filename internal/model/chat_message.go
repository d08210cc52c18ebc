package model

import "time"

// ChatMessage 消息镜像表
type ChatMessage struct {
	ID             string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ConversationID string         `gorm:"type:varchar(128);index:idx_conv_ts" json:"conversationId"`
	SenderID       string         `gorm:"type:varchar(64);index" json:"senderId"`
	SenderName     string         `gorm:"type:varchar(128)" json:"senderName"`
	SenderAvatar   string         `gorm:"type:varchar(512)" json:"senderAvatar"`
	Content        string         `gorm:"type:text" json:"content"`
	Type           string         `gorm:"type:varchar(32)" json:"type"`
	Metadata       map[string]any `gorm:"type:json;serializer:json" json:"metadata"`
	ReadBy         []string       `gorm:"type:json;serializer:json" json:"readBy"`
	Timestamp      time.Time      `gorm:"index:idx_conv_ts" json:"timestamp"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

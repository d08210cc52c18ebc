package model

import "time"

// Conversation 会话镜像表，实时状态以 Redis 为准
type Conversation struct {
	ID            string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	LastMessageID string    `gorm:"type:varchar(64)" json:"lastMessageId"`
	LastContent   string    `gorm:"type:varchar(255)" json:"lastContent"`
	LastSenderID  string    `gorm:"type:varchar(64)" json:"lastSenderId"`
	LastMessageAt time.Time `gorm:"index" json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationMember 会话成员镜像表，LeftAt 晚于 JoinedAt 表示已离开
type ConversationMember struct {
	ConversationID string     `gorm:"primaryKey;type:varchar(128)" json:"conversationId"`
	UserID         string     `gorm:"primaryKey;type:varchar(64);index" json:"userId"`
	JoinedAt       time.Time  `json:"joinedAt"`
	LeftAt         *time.Time `json:"leftAt"`
}

func (ConversationMember) TableName() string { return "conversation_members" }

package model

import "time"

// UserPresence 在线状态快照，由定时任务从 Redis 同步
type UserPresence struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64)" json:"userId"`
	Status    string    `gorm:"type:varchar(16)" json:"status"`
	LastSeen  time.Time `json:"lastSeen"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (UserPresence) TableName() string { return "user_presences" }

package model

import "time"

// UserFollow 关注关系，由用户服务写入，这里只读，用于推导联系人
// 两个索引分别服务粉丝列表与关注列表的按时间倒序查询
type UserFollow struct {
	FollowerID  string    `gorm:"primaryKey;type:varchar(64);index:idx_follower_created,priority:1" json:"followerId"`
	FollowingID string    `gorm:"primaryKey;type:varchar(64);index:idx_following_created,priority:1" json:"followingId"`
	CreatedAt   time.Time `gorm:"index:idx_follower_created,priority:2;index:idx_following_created,priority:2" json:"createdAt"`
}

func (UserFollow) TableName() string { return "user_follows" }

package repository

import (
	"Marquee/internal/model"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepo interface {
	TouchConversation(ctx context.Context, conv *model.Conversation) error
	UpsertMember(ctx context.Context, conversationID, userID string, joinedAt time.Time) error
	MarkMemberLeft(ctx context.Context, conversationID, userID string, leftAt time.Time) error
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

// TouchConversation 写入会话的最后一条消息摘要，只允许时间向前推进
func (s *conversationRepoImpl) TouchConversation(ctx context.Context, conv *model.Conversation) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "last_message_id"}, Value: gorm.Expr("IF(VALUES(last_message_at) >= last_message_at, VALUES(last_message_id), last_message_id)")},
			{Column: clause.Column{Name: "last_content"}, Value: gorm.Expr("IF(VALUES(last_message_at) >= last_message_at, VALUES(last_content), last_content)")},
			{Column: clause.Column{Name: "last_sender_id"}, Value: gorm.Expr("IF(VALUES(last_message_at) >= last_message_at, VALUES(last_sender_id), last_sender_id)")},
			{Column: clause.Column{Name: "last_message_at"}, Value: gorm.Expr("GREATEST(last_message_at, VALUES(last_message_at))")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("VALUES(updated_at)")},
		},
	}).Create(conv).Error
	return errors.Wrapf(err, "touch conversation %s", conv.ID)
}

// UpsertMember 记录最近一次加入时间；left_at 为空或早于 joined_at 时视为仍在会话中
func (s *conversationRepoImpl) UpsertMember(ctx context.Context, conversationID, userID string, joinedAt time.Time) error {
	m := &model.ConversationMember{ConversationID: conversationID, UserID: userID, JoinedAt: joinedAt}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.Set{{
			Column: clause.Column{Name: "joined_at"},
			Value:  gorm.Expr("GREATEST(joined_at, VALUES(joined_at))"),
		}},
	}).Create(m).Error
	return errors.Wrapf(err, "upsert member %s/%s", conversationID, userID)
}

// memberSinceUnknown 离开事件先于加入事件落库时占位的 joined_at，随后的加入会用 GREATEST 覆盖
var memberSinceUnknown = time.Unix(0, 0).UTC()

// MarkMemberLeft 记录最近一次离开时间，成员记录保留；记录不存在时先插入，与加入事件的先后无关
func (s *conversationRepoImpl) MarkMemberLeft(ctx context.Context, conversationID, userID string, leftAt time.Time) error {
	m := &model.ConversationMember{
		ConversationID: conversationID,
		UserID:         userID,
		JoinedAt:       memberSinceUnknown,
		LeftAt:         &leftAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.Set{{
			Column: clause.Column{Name: "left_at"},
			Value:  gorm.Expr("GREATEST(COALESCE(left_at, VALUES(left_at)), VALUES(left_at))"),
		}},
	}).Create(m).Error
	return errors.Wrapf(err, "mark member left %s/%s", conversationID, userID)
}

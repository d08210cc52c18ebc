package repository

import (
	"Marquee/internal/model"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatMessageRepo interface {
	UpsertMessages(ctx context.Context, msgs []*model.ChatMessage) error
}

type chatMessageRepoImpl struct {
	db *gorm.DB
}

func NewChatMessageRepo(db *gorm.DB) ChatMessageRepo {
	return &chatMessageRepoImpl{db: db}
}

// UpsertMessages 批量写入消息；read_by 只增不减，新旧两次写入以元素更多的一方为准
func (s *chatMessageRepoImpl) UpsertMessages(ctx context.Context, msgs []*model.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Set{{
			Column: clause.Column{Name: "read_by"},
			Value:  gorm.Expr("IF(JSON_LENGTH(VALUES(read_by)) > JSON_LENGTH(read_by), VALUES(read_by), read_by)"),
		}},
	}).CreateInBatches(msgs, 200).Error
	return errors.Wrap(err, "upsert chat messages")
}

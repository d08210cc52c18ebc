package repository

import (
	"Marquee/internal/model"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserPresenceRepo interface {
	UpsertPresences(ctx context.Context, records []*model.UserPresence) error
}

type userPresenceRepoImpl struct {
	db *gorm.DB
}

func NewUserPresenceRepo(db *gorm.DB) UserPresenceRepo {
	return &userPresenceRepoImpl{db: db}
}

// UpsertPresences 批量覆盖在线状态快照
func (s *userPresenceRepoImpl) UpsertPresences(ctx context.Context, records []*model.UserPresence) error {
	if len(records) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_seen", "updated_at"}),
	}).Create(&records).Error
	return errors.Wrap(err, "upsert user presences")
}

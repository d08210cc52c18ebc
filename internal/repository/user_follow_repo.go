package repository

import (
	"Marquee/internal/model"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type UserFollowRepo interface {
	GetFollowerIDs(ctx context.Context, userID string, limit int) ([]string, error)
	GetFollowingIDs(ctx context.Context, userID string, limit int) ([]string, error)
}

type UserFollowRepoImpl struct {
	db *gorm.DB
}

func NewUserFollowRepo(db *gorm.DB) UserFollowRepo {
	return &UserFollowRepoImpl{db: db}
}

// GetFollowerIDs 获取用户的粉丝 ID，按关注时间倒序
func (s *UserFollowRepoImpl) GetFollowerIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	ids, err := s.pluckRecent(ctx, "following_id", "follower_id", userID, limit)
	return ids, errors.Wrapf(err, "get followers of %s", userID)
}

// GetFollowingIDs 获取用户关注的人的 ID，按关注时间倒序
func (s *UserFollowRepoImpl) GetFollowingIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	ids, err := s.pluckRecent(ctx, "follower_id", "following_id", userID, limit)
	return ids, errors.Wrapf(err, "get following of %s", userID)
}

// pluckRecent 按 matchColumn = userID 过滤，取 pluckColumn 列
func (s *UserFollowRepoImpl) pluckRecent(ctx context.Context, matchColumn, pluckColumn, userID string, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where(matchColumn+" = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Pluck(pluckColumn, &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

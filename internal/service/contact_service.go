package service

import (
	"Marquee/internal/pkg/consts"
	"Marquee/internal/pkg/util"
	"Marquee/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const contactCacheTTL = time.Hour

// ContactLookup 用户的联系人列表，在线状态变化时通知这些人
type ContactLookup interface {
	ContactsOf(ctx context.Context, userID string) ([]string, error)
}

// ContactService 联系人 = 粉丝 ∪ 关注，先读 Redis zset，未命中回源 MySQL 并异步回填
type ContactService struct {
	rdb            redis.UniversalClient
	userFollowRepo repository.UserFollowRepo
	limit          int
}

func NewContactService(rdb redis.UniversalClient, userFollowRepo repository.UserFollowRepo, limit int) *ContactService {
	if limit <= 0 {
		limit = 1000
	}
	return &ContactService{rdb: rdb, userFollowRepo: userFollowRepo, limit: limit}
}

type fetchIDsFunc func(ctx context.Context, userID string, limit int) ([]string, error)

func (s *ContactService) ContactsOf(ctx context.Context, userID string) ([]string, error) {
	followers, err := s.getFollowIDsCommon(ctx, userID, consts.UserFollowerKey, s.userFollowRepo.GetFollowerIDs)
	if err != nil {
		return nil, err
	}
	following, err := s.getFollowIDsCommon(ctx, userID, consts.UserFollowingKey, s.userFollowRepo.GetFollowingIDs)
	if err != nil {
		return nil, err
	}
	contacts := util.UniqueStrings(followers, following)
	out := contacts[:0]
	for _, id := range contacts {
		if id != userID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *ContactService) getFollowIDsCommon(ctx context.Context, userID, keyPrefix string, fetchDB fetchIDsFunc) ([]string, error) {
	key := keyPrefix + userID
	ids, err := s.rdb.ZRevRange(ctx, key, 0, int64(s.limit-1)).Result()
	if err == nil && len(ids) != 0 {
		return ids, nil
	}
	if err != nil {
		log.WarnContext(ctx, "contact cache unavailable, fallback to db", "key", key, "err", err)
	}

	dbIDs, err := fetchDB(ctx, userID, s.limit)
	if err != nil {
		return nil, err
	}
	if len(dbIDs) == 0 {
		return nil, nil
	}

	go s.fillCache(key, dbIDs)
	return dbIDs, nil
}

// fillCache 按数据库顺序回填，分数越大越新；使用 Background 防止请求结束后被取消
func (s *ContactService) fillCache(key string, ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	members := make([]redis.Z, 0, len(ids))
	for i, id := range ids {
		members = append(members, redis.Z{Score: float64(len(ids) - i), Member: id})
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, members...)
	pipe.Expire(ctx, key, contactCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.WarnContext(ctx, "fill contact cache failed", "key", key, "err", err)
	}
}

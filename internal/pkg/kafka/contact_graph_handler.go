package kafka

import (
	"Marquee/internal/pkg/consts"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
)

// ContactGraphHandler 消费 user_follows 表的 canal 变更，维护联系人缓存 zset
type ContactGraphHandler struct {
	rdb redis.UniversalClient
}

func NewContactGraphHandler(rdb redis.UniversalClient) *ContactGraphHandler {
	return &ContactGraphHandler{rdb: rdb}
}

func (s *ContactGraphHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("contact graph consumer setup")
	return nil
}

func (s *ContactGraphHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("contact graph consumer cleanup")
	return nil
}

func (s *ContactGraphHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("contact graph process batch error", "err", err)
		return err
	}
	return nil
}

func (s *ContactGraphHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, "user_follows")
	if err != nil {
		log.Debug("skip canal message", "offset", msg.Offset, "err", err)
		return nil
	}
	return s.apply(ctx, canalMsg)
}

// apply 关注关系变化时删除双方的联系人缓存，由 ContactService 下次读取时回源重建
// 直接追加可能把一份不完整的列表当成完整缓存
func (s *ContactGraphHandler) apply(ctx context.Context, canalMsg *CanalMessage) error {
	if canalMsg.Type != INSERT && canalMsg.Type != DELETE && canalMsg.Type != UPDATE {
		return nil
	}

	keys := make([]string, 0, 2*len(canalMsg.Data))
	for _, row := range canalMsg.Data {
		followerID := ColumnString(row, "follower_id")
		followingID := ColumnString(row, "following_id")
		if followerID == "" || followingID == "" {
			continue
		}
		keys = append(keys, consts.UserFollowerKey+followingID, consts.UserFollowingKey+followerID)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Error("invalidate contact cache failed", "err", err, "table", canalMsg.Table)
		return err
	}
	return nil
}

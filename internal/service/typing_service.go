package service

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/pkg/consts"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const sweepBatch = 500

// TypingService 输入状态：typing:<conversationId> hash 保存每个用户的记录，
// 每条记录带自己的过期时间，typing_deadlines 按过期时间索引，供定时清扫
// hash 整体的 TTL 仅用于兜底回收，不决定单条记录是否有效
type TypingService struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	nowFn func() time.Time
}

func NewTypingService(rdb redis.UniversalClient, ttl time.Duration) *TypingService {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &TypingService{rdb: rdb, ttl: ttl, nowFn: time.Now}
}

// Start 写入或刷新用户的输入状态，只延长该用户自己的过期时间
func (s *TypingService) Start(ctx context.Context, conversationID, userID, userName string) (*dto.TypingState, error) {
	now := s.nowFn()
	state := &dto.TypingState{
		ConversationID: conversationID,
		UserID:         userID,
		UserName:       userName,
		Timestamp:      now,
		ExpiresAt:      now.Add(s.ttl),
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}

	key := consts.TypingKey + conversationID
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, userID, data)
	pipe.Expire(ctx, key, 2*s.ttl)
	pipe.ZAdd(ctx, consts.TypingDeadlineKey, redis.Z{
		Score:  float64(state.ExpiresAt.UnixMilli()),
		Member: typingMember(conversationID, userID),
	})
	if _, err = pipe.Exec(ctx); err != nil {
		return nil, storeErr("typing start", err)
	}
	return state, nil
}

// Stop 立即移除用户的输入状态，最后一个字段删除后 Redis 会自动回收 hash
func (s *TypingService) Stop(ctx context.Context, conversationID, userID string) (bool, error) {
	pipe := s.rdb.TxPipeline()
	del := pipe.HDel(ctx, consts.TypingKey+conversationID, userID)
	pipe.ZRem(ctx, consts.TypingDeadlineKey, typingMember(conversationID, userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, storeErr("typing stop", err)
	}
	return del.Val() > 0, nil
}

// Active 会话内仍未过期的输入状态
func (s *TypingService) Active(ctx context.Context, conversationID string) ([]*dto.TypingState, error) {
	all, err := s.rdb.HGetAll(ctx, consts.TypingKey+conversationID).Result()
	if err != nil {
		return nil, storeErr("typing active", err)
	}
	now := s.nowFn()
	out := make([]*dto.TypingState, 0, len(all))
	for _, raw := range all {
		var st dto.TypingState
		if err = json.Unmarshal([]byte(raw), &st); err != nil {
			continue
		}
		if st.ExpiresAt.After(now) {
			out = append(out, &st)
		}
	}
	return out, nil
}

// Sweep 清除所有已过期的输入状态并返回它们；多实例并发清扫时每条记录只会被一个实例返回
func (s *TypingService) Sweep(ctx context.Context) ([]*dto.TypingState, error) {
	now := s.nowFn()
	members, err := s.rdb.ZRangeByScore(ctx, consts.TypingDeadlineKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: sweepBatch,
	}).Result()
	if err != nil {
		return nil, storeErr("typing sweep", err)
	}

	var expired []*dto.TypingState
	for _, member := range members {
		conversationID, userID, ok := splitTypingMember(member)
		if !ok {
			s.rdb.ZRem(ctx, consts.TypingDeadlineKey, member)
			continue
		}
		st, err := s.claimExpired(ctx, member, conversationID, userID, now)
		if err != nil {
			return expired, err
		}
		if st != nil {
			expired = append(expired, st)
		}
	}
	return expired, nil
}

func (s *TypingService) claimExpired(ctx context.Context, member, conversationID, userID string, now time.Time) (*dto.TypingState, error) {
	removed, err := s.rdb.ZRem(ctx, consts.TypingDeadlineKey, member).Result()
	if err != nil {
		return nil, storeErr("typing sweep", err)
	}
	if removed == 0 {
		return nil, nil
	}

	key := consts.TypingKey + conversationID
	raw, err := s.rdb.HGet(ctx, key, userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("typing sweep", err)
	}
	var st dto.TypingState
	if err = json.Unmarshal(raw, &st); err != nil {
		s.rdb.HDel(ctx, key, userID)
		return nil, nil
	}
	// 扫描与清除之间被刷新过，放回索引
	if st.ExpiresAt.After(now) {
		err = s.rdb.ZAdd(ctx, consts.TypingDeadlineKey, redis.Z{
			Score:  float64(st.ExpiresAt.UnixMilli()),
			Member: member,
		}).Err()
		return nil, storeErr("typing sweep", err)
	}
	if err = s.rdb.HDel(ctx, key, userID).Err(); err != nil {
		return nil, storeErr("typing sweep", err)
	}
	return &st, nil
}

// typingMember 以会话 ID 的字节长度做前缀，两段内容任意时都能无歧义拆分
func typingMember(conversationID, userID string) string {
	return strconv.Itoa(len(conversationID)) + ":" + conversationID + userID
}

func splitTypingMember(member string) (string, string, bool) {
	prefix, rest, ok := strings.Cut(member, ":")
	if !ok {
		return "", "", false
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n <= 0 || n >= len(rest) {
		return "", "", false
	}
	return rest[:n], rest[n:], true
}

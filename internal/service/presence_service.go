package service

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// PresenceService 在线状态：写 presence hash，并通知当前在线的联系人
// 状态写入与联系人通知都是尽力而为，失败只记录日志，不影响连接
type PresenceService struct {
	rdb      redis.UniversalClient
	registry *SessionRegistry
	contacts ContactLookup
	nowFn    func() time.Time
}

func NewPresenceService(rdb redis.UniversalClient, registry *SessionRegistry, contacts ContactLookup) *PresenceService {
	return &PresenceService{rdb: rdb, registry: registry, contacts: contacts, nowFn: time.Now}
}

// Online 连接绑定后调用
func (s *PresenceService) Online(ctx context.Context, user dto.ChatUser, connID string) {
	handle := connID
	s.publish(ctx, user, &dto.PresenceRecord{
		Status:             consts.PresenceOnline,
		LastSeen:           s.nowFn(),
		ConnectionHandleID: &handle,
	})
}

// Offline 连接解绑后调用
func (s *PresenceService) Offline(ctx context.Context, user dto.ChatUser) {
	s.publish(ctx, user, &dto.PresenceRecord{
		Status:   consts.PresenceOffline,
		LastSeen: s.nowFn(),
	})
}

// Get 读取用户的在线状态记录
func (s *PresenceService) Get(ctx context.Context, userID string) (*dto.PresenceRecord, error) {
	raw, err := s.rdb.HGet(ctx, consts.PresenceKey, userID).Bytes()
	if err != nil {
		return nil, storeErr("get presence", err)
	}
	var rec dto.PresenceRecord
	if err = json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode presence %s: %w", userID, err)
	}
	return &rec, nil
}

// GetMany 批量读取，缺失的用户不出现在结果中
func (s *PresenceService) GetMany(ctx context.Context, userIDs []string) (map[string]*dto.PresenceRecord, error) {
	out := make(map[string]*dto.PresenceRecord, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	vals, err := s.rdb.HMGet(ctx, consts.PresenceKey, userIDs...).Result()
	if err != nil {
		return nil, storeErr("get presences", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec dto.PresenceRecord
		if err = json.Unmarshal([]byte(str), &rec); err != nil {
			log.WarnContext(ctx, "skip undecodable presence", "user_id", userIDs[i], "err", err)
			continue
		}
		out[userIDs[i]] = &rec
	}
	return out, nil
}

func (s *PresenceService) publish(ctx context.Context, user dto.ChatUser, rec *dto.PresenceRecord) {
	if err := s.write(ctx, user.UserID, rec); err != nil {
		log.ErrorContext(ctx, "presence write failed", "user_id", user.UserID, "status", rec.Status, "err", err)
	}
	s.broadcast(ctx, user, rec)
}

// write 同时把用户加入 presence:dirty，由同步任务落库
func (s *PresenceService) write(ctx context.Context, userID string, rec *dto.PresenceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, consts.PresenceKey, userID, data)
	pipe.SAdd(ctx, consts.PresenceDirtyKey, userID)
	_, err = pipe.Exec(ctx)
	return storeErr("write presence", err)
}

func (s *PresenceService) broadcast(ctx context.Context, user dto.ChatUser, rec *dto.PresenceRecord) {
	if s.contacts == nil {
		return
	}
	contacts, err := s.contacts.ContactsOf(ctx, user.UserID)
	if err != nil {
		log.WarnContext(ctx, "contact lookup failed, skip presence broadcast", "user_id", user.UserID, "err", err)
		return
	}
	payload := dto.PresencePayload{
		UserID:    user.UserID,
		UserName:  user.DisplayName,
		Status:    rec.Status,
		Timestamp: rec.LastSeen,
	}
	for _, contactID := range contacts {
		if contactID == user.UserID {
			continue
		}
		conn, ok := s.registry.Resolve(contactID)
		if !ok {
			continue
		}
		if err = conn.Emit(consts.EventPresenceChanged, payload); err != nil {
			log.DebugContext(ctx, "emit presence_changed failed", "to", contactID, "err", err)
		}
	}
}

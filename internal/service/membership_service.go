package service

import (
	"Marquee/internal/pkg/consts"
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// MembershipService 会话成员：conversation:<id>:participants 保存成员集合，Rooms 保存本进程内的广播订阅
// Join/Leave 对称：Leave 同时移除成员记录与房间订阅
type MembershipService struct {
	rdb            redis.UniversalClient
	rooms          *Rooms
	legacyFallback bool
}

func NewMembershipService(rdb redis.UniversalClient, rooms *Rooms, legacyFallback bool) *MembershipService {
	return &MembershipService{rdb: rdb, rooms: rooms, legacyFallback: legacyFallback}
}

// Join 幂等地加入成员集合，并把发起连接订阅到会话房间
func (s *MembershipService) Join(ctx context.Context, conversationID, userID, connID string) error {
	if err := s.rdb.SAdd(ctx, consts.ParticipantsKey(conversationID), userID).Err(); err != nil {
		return storeErr("join conversation", err)
	}
	if connID != "" {
		s.rooms.Subscribe(conversationID, connID)
	}
	return nil
}

// Leave 移除成员记录并取消连接的房间订阅
func (s *MembershipService) Leave(ctx context.Context, conversationID, userID, connID string) error {
	if connID != "" {
		s.rooms.Unsubscribe(conversationID, connID)
	}
	if err := s.rdb.SRem(ctx, consts.ParticipantsKey(conversationID), userID).Err(); err != nil {
		return storeErr("leave conversation", err)
	}
	return nil
}

// IsParticipant 是否为会话成员
func (s *MembershipService) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, consts.ParticipantsKey(conversationID), userID).Result()
	if err != nil {
		return false, storeErr("is participant", err)
	}
	return ok, nil
}

// ParticipantsOf 会话成员集合；开启兼容模式且没有成员记录时，从 "<idA>-<idB>" 形式的会话 ID 推导
func (s *MembershipService) ParticipantsOf(ctx context.Context, conversationID string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, consts.ParticipantsKey(conversationID)).Result()
	if err != nil {
		return nil, storeErr("participants", err)
	}
	if len(members) == 0 && s.legacyFallback {
		return parsePeerKey(conversationID), nil
	}
	return members, nil
}

// RoomConnections 本进程内订阅了会话房间的连接
func (s *MembershipService) RoomConnections(conversationID string) []string {
	return s.rooms.Members(conversationID)
}

// DropConnection 连接断开时退出所有房间，成员记录保留
func (s *MembershipService) DropConnection(connID string) {
	s.rooms.Drop(connID)
}

// parsePeerKey 旧版单聊会话 ID 约定；用户 ID 本身含 "-" 时无法还原，只用于迁移期
func parsePeerKey(conversationID string) []string {
	a, b, ok := strings.Cut(conversationID, "-")
	if !ok || a == "" || b == "" || strings.Contains(b, "-") {
		return nil
	}
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}

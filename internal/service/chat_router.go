package service

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/pkg/consts"
	"Marquee/internal/pkg/util"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"runtime/debug"
	"time"
)

const (
	sharedEventPrefix = "Shared event: "
	invalidEventType  = "invalid_event"
)

// ChatRouter 连接生命周期与入站事件分发
// 每个事件独立处理，失败只以 chat:error 回给发起连接，不影响连接本身与其他参与者
type ChatRouter struct {
	registry   *SessionRegistry
	presence   *PresenceService
	membership *MembershipService
	messages   *MessageService
	typing     *TypingService
	mirror     MirrorPublisher
	nowFn      func() time.Time
}

func NewChatRouter(
	registry *SessionRegistry,
	presence *PresenceService,
	membership *MembershipService,
	messages *MessageService,
	typing *TypingService,
	mirror MirrorPublisher,
) *ChatRouter {
	if mirror == nil {
		mirror = NopMirror{}
	}
	return &ChatRouter{
		registry:   registry,
		presence:   presence,
		membership: membership,
		messages:   messages,
		typing:     typing,
		mirror:     mirror,
		nowFn:      time.Now,
	}
}

// Connect authenticated -> connected：绑定会话并广播上线
func (r *ChatRouter) Connect(ctx context.Context, sess *Session) error {
	if !sess.advance(StateAuthenticated, StateConnected) {
		return fmt.Errorf("connect from %s: %w", sess.State(), ErrInvalidState)
	}
	user := sess.User()
	if replaced := r.registry.Bind(user.UserID, sess.Conn); replaced != nil {
		log.InfoContext(ctx, "session replaced", "user_id", user.UserID, "old_conn", replaced.ID())
	}
	r.presence.Online(ctx, user, sess.Conn.ID())
	return nil
}

// Disconnect 任意状态 -> disconnected；重复断开或已被新连接覆盖时为空操作
func (r *ChatRouter) Disconnect(ctx context.Context, sess *Session) {
	if prev := sess.close(); prev == StateDisconnected {
		return
	}
	connID := sess.Conn.ID()
	r.membership.DropConnection(connID)

	if _, ok := r.registry.Unbind(connID); !ok {
		log.DebugContext(ctx, "disconnect ignored", "conn_id", connID, "reason", ErrUnknownConnection)
		return
	}
	r.presence.Offline(ctx, sess.User())
}

// Dispatch 处理一条入站事件，同一连接的事件由调用方顺序投递
func (r *ChatRouter) Dispatch(ctx context.Context, sess *Session, name string, data []byte) {
	defer func() {
		if p := recover(); p != nil {
			log.ErrorContext(ctx, "event handler panic", "event", name, "panic", p, "stack", string(debug.Stack()))
			r.emitError(ctx, sess, errorType(name), UnExpectedError.Error())
		}
	}()

	if st := sess.State(); st != StateConnected {
		log.DebugContext(ctx, "event dropped", "event", name, "state", st.String())
		return
	}

	ev, err := DecodeInbound(name, data)
	if err != nil {
		r.fail(ctx, sess, name, "", err)
		return
	}
	if err = r.handle(ctx, sess, ev); err != nil {
		r.fail(ctx, sess, name, ev.Conversation(), err)
	}
}

// SweepTyping 清理过期的输入状态，并向会话内其他参与者补发 typing_stop
func (r *ChatRouter) SweepTyping(ctx context.Context) (int, error) {
	expired, err := r.typing.Sweep(ctx)
	for _, st := range expired {
		r.fanOut(ctx, st.ConversationID, st.UserID, nil, consts.EventTypingStop, dto.TypingPayload{
			ConversationID: st.ConversationID,
			UserID:         st.UserID,
			UserName:       st.UserName,
		})
	}
	return len(expired), err
}

func (r *ChatRouter) handle(ctx context.Context, sess *Session, ev InboundEvent) error {
	user := sess.User()
	switch e := ev.(type) {
	case *SendMessageEvent:
		return r.deliver(ctx, sess.Conn, &dto.Message{
			ConversationID: e.ConversationID,
			SenderID:       user.UserID,
			SenderName:     user.DisplayName,
			SenderAvatar:   user.AvatarURL,
			Content:        e.Content,
			Type:           e.Type,
			Metadata:       e.Metadata,
		})
	case *ShareEventEvent:
		return r.deliver(ctx, sess.Conn, &dto.Message{
			ConversationID: e.ConversationID,
			SenderID:       user.UserID,
			SenderName:     user.DisplayName,
			SenderAvatar:   user.AvatarURL,
			Content:        util.TruncateRunes(sharedEventPrefix+e.EventData.Name, MaxContentLength),
			Type:           consts.MessageTypeEventShare,
			Metadata: map[string]any{
				"eventId": e.EventID,
				"event":   e.EventData.Fields,
			},
		})
	case *TypingStartEvent:
		return r.typingStart(ctx, user, e.ConversationID)
	case *TypingStopEvent:
		return r.typingStop(ctx, user, e.ConversationID)
	case *JoinConversationEvent:
		if err := r.membership.Join(ctx, e.ConversationID, user.UserID, sess.Conn.ID()); err != nil {
			return err
		}
		r.publishMirror(ctx, &dto.MirrorEvent{
			Type:           consts.MirrorMemberJoined,
			ConversationID: e.ConversationID,
			UserID:         user.UserID,
			OccurredAt:     r.nowFn(),
		})
		return nil
	case *LeaveConversationEvent:
		if err := r.membership.Leave(ctx, e.ConversationID, user.UserID, sess.Conn.ID()); err != nil {
			return err
		}
		r.publishMirror(ctx, &dto.MirrorEvent{
			Type:           consts.MirrorMemberLeft,
			ConversationID: e.ConversationID,
			UserID:         user.UserID,
			OccurredAt:     r.nowFn(),
		})
		return nil
	case *MarkReadEvent:
		return r.markRead(ctx, user, e.ConversationID, e.MessageID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.EventName())
	}
}

// deliver 写入消息后推送给会话全部参与者，发起连接无论是否已加入都会收到回显
func (r *ChatRouter) deliver(ctx context.Context, origin Conn, msg *dto.Message) error {
	saved, err := r.messages.Append(ctx, msg)
	if err != nil {
		return err
	}
	// 最后消息时间只用于展示，写失败不回滚消息
	if err = r.messages.TouchConversation(ctx, saved.ConversationID, saved.Timestamp); err != nil {
		log.ErrorContext(ctx, "touch conversation failed", "conversation_id", saved.ConversationID, "err", err)
	}
	r.fanOut(ctx, saved.ConversationID, "", origin, consts.EventNewMessage, saved)
	r.publishMirror(ctx, &dto.MirrorEvent{
		Type:           consts.MirrorMessageCreated,
		ConversationID: saved.ConversationID,
		UserID:         saved.SenderID,
		MessageID:      saved.ID,
		Message:        saved,
		OccurredAt:     saved.Timestamp,
	})
	return nil
}

func (r *ChatRouter) typingStart(ctx context.Context, user dto.ChatUser, conversationID string) error {
	st, err := r.typing.Start(ctx, conversationID, user.UserID, user.DisplayName)
	if err != nil {
		return err
	}
	r.fanOut(ctx, conversationID, user.UserID, nil, consts.EventTypingStart, dto.TypingPayload{
		ConversationID: st.ConversationID,
		UserID:         st.UserID,
		UserName:       st.UserName,
	})
	return nil
}

func (r *ChatRouter) typingStop(ctx context.Context, user dto.ChatUser, conversationID string) error {
	if _, err := r.typing.Stop(ctx, conversationID, user.UserID); err != nil {
		return err
	}
	r.fanOut(ctx, conversationID, user.UserID, nil, consts.EventTypingStop, dto.TypingPayload{
		ConversationID: conversationID,
		UserID:         user.UserID,
		UserName:       user.DisplayName,
	})
	return nil
}

// markRead 消息不存在或不属于该会话时静默忽略；已读过的不再通知
func (r *ChatRouter) markRead(ctx context.Context, user dto.ChatUser, conversationID, messageID string) error {
	msg, err := r.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ConversationID != conversationID {
		return fmt.Errorf("message %s in conversation %s: %w", messageID, conversationID, ErrNotFound)
	}
	msg, changed, err := r.messages.MarkRead(ctx, messageID, user.UserID)
	if err != nil || !changed {
		return err
	}
	r.fanOut(ctx, conversationID, user.UserID, nil, consts.EventMessageRead, dto.MessageReadPayload{
		ConversationID: conversationID,
		MessageID:      messageID,
		ReadBy:         msg.ReadBy,
	})
	r.publishMirror(ctx, &dto.MirrorEvent{
		Type:           consts.MirrorMessageRead,
		ConversationID: conversationID,
		UserID:         user.UserID,
		MessageID:      messageID,
		Message:        msg,
		ReadBy:         msg.ReadBy,
		OccurredAt:     r.nowFn(),
	})
	return nil
}

// fanOut 推送给会话参与者与房间内仍然绑定的连接，origin 非空时一并推送；按连接去重，跳过 excludeUserID
// 成员读取失败时退化为只推送房间
func (r *ChatRouter) fanOut(ctx context.Context, conversationID, excludeUserID string, origin Conn, event string, payload any) {
	participants, err := r.membership.ParticipantsOf(ctx, conversationID)
	if err != nil {
		log.ErrorContext(ctx, "load participants failed, fallback to room", "conversation_id", conversationID, "err", err)
	}

	seen := make(map[string]struct{})
	targets := make([]Conn, 0, len(participants))
	add := func(c Conn) {
		if _, ok := seen[c.ID()]; ok {
			return
		}
		seen[c.ID()] = struct{}{}
		targets = append(targets, c)
	}
	if origin != nil {
		add(origin)
	}

	for _, userID := range participants {
		if userID == excludeUserID {
			continue
		}
		if c, ok := r.registry.Resolve(userID); ok {
			add(c)
		}
	}
	for _, connID := range r.membership.RoomConnections(conversationID) {
		c, userID, ok := r.registry.Lookup(connID)
		if !ok || userID == excludeUserID {
			continue
		}
		add(c)
	}

	for _, c := range targets {
		if err = c.Emit(event, payload); err != nil {
			log.DebugContext(ctx, "emit failed", "event", event, "conn_id", c.ID(), "err", err)
		}
	}
}

func (r *ChatRouter) publishMirror(ctx context.Context, ev *dto.MirrorEvent) {
	if err := r.mirror.Publish(ctx, ev); err != nil {
		log.WarnContext(ctx, "mirror publish failed", "type", ev.Type, "conversation_id", ev.ConversationID, "err", err)
	}
}

// fail 按错误分类决定日志级别以及是否回 chat:error
// conversationID 为空表示事件未能解析
func (r *ChatRouter) fail(ctx context.Context, sess *Session, name, conversationID string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.DebugContext(ctx, "event target not found", "event", name, "conversation_id", conversationID, "err", err)
	case errors.Is(err, ErrUnknownEvent):
		log.DebugContext(ctx, "unknown event", "event", name)
		r.emitError(ctx, sess, invalidEventType, err.Error())
	case errors.Is(err, ErrValidation):
		log.DebugContext(ctx, "event rejected", "event", name, "conversation_id", conversationID, "err", err)
		r.emitError(ctx, sess, errorType(name), err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		log.ErrorContext(ctx, "store unavailable", "event", name, "conversation_id", conversationID, "err", err)
		r.emitError(ctx, sess, errorType(name), ErrStoreUnavailable.Error())
	default:
		log.ErrorContext(ctx, "event failed", "event", name, "conversation_id", conversationID, "err", err)
		r.emitError(ctx, sess, errorType(name), UnExpectedError.Error())
	}
}

func (r *ChatRouter) emitError(ctx context.Context, sess *Session, typ, msg string) {
	err := sess.Conn.Emit(consts.EventChatError, dto.ChatErrorPayload{Type: typ, Message: msg})
	if err != nil {
		log.DebugContext(ctx, "emit chat:error failed", "conn_id", sess.Conn.ID(), "err", err)
	}
}

func errorType(event string) string {
	return event + "_failed"
}

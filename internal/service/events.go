package service

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/pkg/consts"
	"Marquee/internal/pkg/util"
	"fmt"

	"github.com/goccy/go-json"
)

// InboundEvent 已通过结构校验的入站事件，每种事件名对应一个具体类型
type InboundEvent interface {
	EventName() string
	Conversation() string
}

type SendMessageEvent struct{ dto.SendMessageReq }
type TypingStartEvent struct{ dto.TypingStartReq }
type TypingStopEvent struct{ dto.TypingStopReq }
type JoinConversationEvent struct{ dto.JoinConversationReq }
type LeaveConversationEvent struct{ dto.LeaveConversationReq }
type MarkReadEvent struct{ dto.MarkReadReq }
type ShareEventEvent struct{ dto.ShareEventReq }

func (SendMessageEvent) EventName() string       { return consts.EventSendMessage }
func (TypingStartEvent) EventName() string       { return consts.EventTypingStart }
func (TypingStopEvent) EventName() string        { return consts.EventTypingStop }
func (JoinConversationEvent) EventName() string  { return consts.EventJoinConversation }
func (LeaveConversationEvent) EventName() string { return consts.EventLeaveConversation }
func (MarkReadEvent) EventName() string          { return consts.EventMarkRead }
func (ShareEventEvent) EventName() string        { return consts.EventShareEvent }

func (e SendMessageEvent) Conversation() string       { return e.ConversationID }
func (e TypingStartEvent) Conversation() string       { return e.ConversationID }
func (e TypingStopEvent) Conversation() string        { return e.ConversationID }
func (e JoinConversationEvent) Conversation() string  { return e.ConversationID }
func (e LeaveConversationEvent) Conversation() string { return e.ConversationID }
func (e MarkReadEvent) Conversation() string          { return e.ConversationID }
func (e ShareEventEvent) Conversation() string        { return e.ConversationID }

// DecodeInbound 按事件名解析并校验 data，未知事件返回 ErrUnknownEvent，其余失败返回 ErrValidation
func DecodeInbound(name string, data []byte) (InboundEvent, error) {
	var ev InboundEvent
	var target any
	switch name {
	case consts.EventSendMessage:
		e := &SendMessageEvent{}
		ev, target = e, &e.SendMessageReq
	case consts.EventTypingStart:
		e := &TypingStartEvent{}
		ev, target = e, &e.TypingStartReq
	case consts.EventTypingStop:
		e := &TypingStopEvent{}
		ev, target = e, &e.TypingStopReq
	case consts.EventJoinConversation:
		e := &JoinConversationEvent{}
		ev, target = e, &e.JoinConversationReq
	case consts.EventLeaveConversation:
		e := &LeaveConversationEvent{}
		ev, target = e, &e.LeaveConversationReq
	case consts.EventMarkRead:
		e := &MarkReadEvent{}
		ev, target = e, &e.MarkReadReq
	case consts.EventShareEvent:
		e := &ShareEventEvent{}
		ev, target = e, &e.ShareEventReq
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}

	if len(data) == 0 || string(data) == "null" {
		return nil, validationErr("%s 缺少 data", name)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, validationErr("%s 解析失败: %v", name, err)
	}
	if err := util.ValidateDTO(target); err != nil {
		return nil, validationErr("%s: %v", name, err)
	}
	return ev, nil
}

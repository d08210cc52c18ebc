package consts

// 入站事件
const (
	EventSendMessage       = "send_message"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventMarkRead          = "mark_read"
	EventShareEvent        = "share_event"
)

// 出站事件
const (
	EventNewMessage      = "new_message"
	EventMessageRead     = "message_read"
	EventPresenceChanged = "presence_changed"
	EventChatError       = "chat:error"
)

// 消息类型
const (
	MessageTypeText        = "text"
	MessageTypeImage       = "image"
	MessageTypeEventShare  = "event_share"
	MessageTypeTicketShare = "ticket_share"
)

// 在线状态
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// 镜像事件类型
const (
	MirrorMessageCreated = "message_created"
	MirrorMessageRead    = "message_read"
	MirrorMemberJoined   = "member_joined"
	MirrorMemberLeft     = "member_left"
)

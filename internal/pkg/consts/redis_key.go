package consts

// 实时聊天共享状态
const (
	PresenceKey                    = "presence"         // hash: userID -> {status, lastSeen, connectionHandleId}
	PresenceDirtyKey               = "presence:dirty"   // set: 待同步到 MySQL 的用户
	MessageKey                     = "message:"         // message:<id> -> JSON
	ConversationKey                = "conversation:"    // conversation:<id> hash -> {last_message_at}
	MessagesSuffix                 = ":messages"        // conversation:<id>:messages list
	ParticipantsSuffix             = ":participants"    // conversation:<id>:participants set
	TypingKey                      = "typing:"          // typing:<conversationId> hash -> userID -> JSON
	TypingDeadlineKey              = "typing_deadlines" // zset: <len(conversationId)>:<conversationId><userID> -> 过期时间(ms)
	UserFollowerKey                = "user:follower:"   // zset: 粉丝
	UserFollowingKey               = "user:following:"  // zset: 关注
	ConversationLastMessageAtField = "last_message_at"
)

// MessageListKey conversation:<id>:messages
func MessageListKey(conversationID string) string {
	return ConversationKey + conversationID + MessagesSuffix
}

// ParticipantsKey conversation:<id>:participants
func ParticipantsKey(conversationID string) string {
	return ConversationKey + conversationID + ParticipantsSuffix
}

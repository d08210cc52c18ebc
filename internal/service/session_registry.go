package service

import (
	"Marquee/internal/api/dto"
	"sync"
	"sync/atomic"
)

// Conn 一条活跃的双向连接句柄
type Conn interface {
	ID() string
	Emit(event string, payload any) error
}

// SessionRegistry 进程内的 userID <-> 连接 双向映射，同一用户后连接覆盖先连接
type SessionRegistry struct {
	mu     sync.RWMutex
	byUser map[string]Conn
	byConn map[string]binding
}

type binding struct {
	userID string
	conn   Conn
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byUser: make(map[string]Conn),
		byConn: make(map[string]binding),
	}
}

// Bind 记录双向映射，返回被覆盖的旧连接（没有则为 nil）
// 被覆盖的旧连接不会被关闭，之后对它的 Unbind 返回 false
func (r *SessionRegistry) Bind(userID string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID := conn.ID()

	var replaced Conn
	if prev, ok := r.byUser[userID]; ok && prev.ID() != connID {
		delete(r.byConn, prev.ID())
		replaced = prev
	}
	if prev, ok := r.byConn[connID]; ok && prev.userID != userID {
		if cur, ok := r.byUser[prev.userID]; ok && cur.ID() == connID {
			delete(r.byUser, prev.userID)
		}
	}

	r.byUser[userID] = conn
	r.byConn[connID] = binding{userID: userID, conn: conn}
	return replaced
}

// Unbind 删除连接的双向映射，返回对应的 userID；未知连接（重复断开、已被覆盖）返回 false
func (r *SessionRegistry) Unbind(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)
	if cur, ok := r.byUser[b.userID]; ok && cur.ID() == connID {
		delete(r.byUser, b.userID)
	}
	return b.userID, true
}

// Resolve 查找用户当前的连接
func (r *SessionRegistry) Resolve(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// Lookup 根据连接 ID 查找连接及其用户
func (r *SessionRegistry) Lookup(connID string) (Conn, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byConn[connID]
	if !ok {
		return nil, "", false
	}
	return b.conn, b.userID, true
}

// Len 当前在线的用户数
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// ConnState 连接生命周期，只能单向推进
type ConnState int32

const (
	StateUnauthenticated ConnState = iota
	StateAuthenticated
	StateConnected
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session 一条连接在路由器视角下的状态
type Session struct {
	Conn  Conn
	user  dto.ChatUser
	state atomic.Int32
}

func NewSession(conn Conn) *Session {
	return &Session{Conn: conn}
}

func (s *Session) State() ConnState {
	return ConnState(s.state.Load())
}

func (s *Session) User() dto.ChatUser {
	return s.user
}

// Authenticate 写入鉴权中间件解析出的身份
func (s *Session) Authenticate(user dto.ChatUser) error {
	if user.UserID == "" {
		return UnauthorizedError
	}
	if !s.state.CompareAndSwap(int32(StateUnauthenticated), int32(StateAuthenticated)) {
		return ErrInvalidState
	}
	s.user = user
	return nil
}

func (s *Session) advance(from, to ConnState) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}

// close 任意状态进入 disconnected，返回之前的状态
func (s *Session) close() ConnState {
	return ConnState(s.state.Swap(int32(StateDisconnected)))
}

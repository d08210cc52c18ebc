package service

import "sync"

// Rooms 会话广播房间：conversationID -> 已订阅的连接
type Rooms struct {
	mu     sync.RWMutex
	byConv map[string]map[string]struct{}
	byConn map[string]map[string]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		byConv: make(map[string]map[string]struct{}),
		byConn: make(map[string]map[string]struct{}),
	}
}

func (r *Rooms) Subscribe(conversationID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	addTo(r.byConv, conversationID, connID)
	addTo(r.byConn, connID, conversationID)
}

func (r *Rooms) Unsubscribe(conversationID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removeFrom(r.byConv, conversationID, connID)
	removeFrom(r.byConn, connID, conversationID)
}

// Drop 连接断开时退出所有房间
func (r *Rooms) Drop(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conv := range r.byConn[connID] {
		removeFrom(r.byConv, conv, connID)
	}
	delete(r.byConn, connID)
}

// Members 房间内的连接 ID 快照
func (r *Rooms) Members(conversationID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byConv[conversationID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func addTo(m map[string]map[string]struct{}, k, v string) {
	set, ok := m[k]
	if !ok {
		set = make(map[string]struct{})
		m[k] = set
	}
	set[v] = struct{}{}
}

func removeFrom(m map[string]map[string]struct{}, k, v string) {
	set, ok := m[k]
	if !ok {
		return
	}
	delete(set, v)
	if len(set) == 0 {
		delete(m, k)
	}
}

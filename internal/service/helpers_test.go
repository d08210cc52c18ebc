package service

import (
	"Marquee/internal/api/dto"
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:            mr.Addr(),
		DisableIdentity: true,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type emitted struct {
	Event   string
	Payload any
}

type fakeConn struct {
	id string

	mu     sync.Mutex
	events []emitted
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, emitted{Event: event, Payload: payload})
	return nil
}

// Named 返回指定事件名的所有出站事件
func (c *fakeConn) Named(event string) []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []emitted
	for _, e := range c.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

type fakeContacts struct {
	contacts map[string][]string
	err      error
}

func (f *fakeContacts) ContactsOf(_ context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contacts[userID], nil
}

type fakeMirror struct {
	mu     sync.Mutex
	events []*dto.MirrorEvent
}

func (f *fakeMirror) Publish(_ context.Context, ev *dto.MirrorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeMirror) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeFollowRepo struct {
	followers map[string][]string
	following map[string][]string
	calls     int
}

func (f *fakeFollowRepo) GetFollowerIDs(_ context.Context, userID string, limit int) ([]string, error) {
	f.calls++
	return head(f.followers[userID], limit), nil
}

func (f *fakeFollowRepo) GetFollowingIDs(_ context.Context, userID string, limit int) ([]string, error) {
	f.calls++
	return head(f.following[userID], limit), nil
}

func head(ids []string, n int) []string {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

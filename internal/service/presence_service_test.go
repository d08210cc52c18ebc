package service

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/pkg/consts"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPresenceService_Online_Offline(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	registry := NewSessionRegistry()
	contacts := &fakeContacts{contacts: map[string][]string{"alice": {"bob", "carol"}}}
	svc := NewPresenceService(rdb, registry, contacts)
	now := time.UnixMilli(1_700_000_000_000)
	svc.nowFn = func() time.Time { return now }
	ctx := context.Background()

	// Given bob is online and carol is not
	bob := newFakeConn("conn-bob")
	registry.Bind("bob", bob)

	alice := dto.ChatUser{UserID: "alice", DisplayName: "Alice"}

	// When alice comes online
	svc.Online(ctx, alice, "conn-alice")

	// Then the record carries the handle
	rec, err := svc.Get(ctx, "alice")
	req.NoError(err)
	req.Equal(consts.PresenceOnline, rec.Status)
	req.NotNil(rec.ConnectionHandleID)
	req.Equal("conn-alice", *rec.ConnectionHandleID)
	req.True(now.Equal(rec.LastSeen))

	// And alice is queued for sync
	dirty, err := mr.SMembers(consts.PresenceDirtyKey)
	req.NoError(err)
	req.Equal([]string{"alice"}, dirty)

	// And only bob is notified
	got := bob.Named(consts.EventPresenceChanged)
	req.Len(got, 1)
	payload := got[0].Payload.(dto.PresencePayload)
	req.Equal("alice", payload.UserID)
	req.Equal("Alice", payload.UserName)
	req.Equal(consts.PresenceOnline, payload.Status)

	// When alice goes offline
	svc.Offline(ctx, alice)

	rec, err = svc.Get(ctx, "alice")
	req.NoError(err)
	req.Equal(consts.PresenceOffline, rec.Status)
	req.Nil(rec.ConnectionHandleID)

	got = bob.Named(consts.EventPresenceChanged)
	req.Len(got, 2)
	req.Equal(consts.PresenceOffline, got[1].Payload.(dto.PresencePayload).Status)
}

func TestPresenceService_Contact_Lookup_Failure_Skips_Broadcast(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	registry := NewSessionRegistry()
	svc := NewPresenceService(rdb, registry, &fakeContacts{err: errors.New("db down")})
	ctx := context.Background()

	bob := newFakeConn("conn-bob")
	registry.Bind("bob", bob)

	svc.Online(ctx, dto.ChatUser{UserID: "alice"}, "conn-alice")

	// The record is still written
	rec, err := svc.Get(ctx, "alice")
	req.NoError(err)
	req.Equal(consts.PresenceOnline, rec.Status)
	req.Empty(bob.Named(consts.EventPresenceChanged))
}

func TestPresenceService_Write_Failure_Still_Broadcasts(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	registry := NewSessionRegistry()
	svc := NewPresenceService(rdb, registry, &fakeContacts{contacts: map[string][]string{"alice": {"bob"}}})

	bob := newFakeConn("conn-bob")
	registry.Bind("bob", bob)
	mr.Close()

	svc.Online(context.Background(), dto.ChatUser{UserID: "alice"}, "conn-alice")

	req.Len(bob.Named(consts.EventPresenceChanged), 1)
}

func TestPresenceService_Get_Unknown_User(t *testing.T) {
	_, rdb := newTestRedis(t)
	svc := NewPresenceService(rdb, NewSessionRegistry(), nil)

	_, err := svc.Get(context.Background(), "ghost")

	require.ErrorIs(t, err, ErrNotFound)
}

func TestPresenceService_GetMany(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	svc := NewPresenceService(rdb, NewSessionRegistry(), nil)
	ctx := context.Background()

	svc.Online(ctx, dto.ChatUser{UserID: "alice"}, "c1")
	svc.Offline(ctx, dto.ChatUser{UserID: "bob"})

	recs, err := svc.GetMany(ctx, []string{"alice", "bob", "ghost"})
	req.NoError(err)
	req.Len(recs, 2)
	req.Equal(consts.PresenceOnline, recs["alice"].Status)
	req.Equal(consts.PresenceOffline, recs["bob"].Status)

	recs, err = svc.GetMany(ctx, nil)
	req.NoError(err)
	req.Empty(recs)
}

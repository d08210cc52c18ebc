package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMembershipService_Join_Leave_Symmetric(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	rooms := NewRooms()
	svc := NewMembershipService(rdb, rooms, false)
	ctx := context.Background()

	// When alice joins twice from the same connection
	req.NoError(svc.Join(ctx, "c1", "alice", "conn-a"))
	req.NoError(svc.Join(ctx, "c1", "alice", "conn-a"))

	// Then she is recorded once and subscribed once
	members, err := svc.ParticipantsOf(ctx, "c1")
	req.NoError(err)
	req.Equal([]string{"alice"}, members)
	req.Equal([]string{"conn-a"}, svc.RoomConnections("c1"))

	ok, err := svc.IsParticipant(ctx, "c1", "alice")
	req.NoError(err)
	req.True(ok)

	// When she leaves
	req.NoError(svc.Leave(ctx, "c1", "alice", "conn-a"))

	// Then both the record and the subscription are gone
	ok, err = svc.IsParticipant(ctx, "c1", "alice")
	req.NoError(err)
	req.False(ok)
	req.Empty(svc.RoomConnections("c1"))
}

func TestMembershipService_DropConnection_Keeps_Membership(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	svc := NewMembershipService(rdb, NewRooms(), false)
	ctx := context.Background()

	req.NoError(svc.Join(ctx, "c1", "alice", "conn-a"))
	req.NoError(svc.Join(ctx, "c2", "alice", "conn-a"))

	svc.DropConnection("conn-a")

	req.Empty(svc.RoomConnections("c1"))
	req.Empty(svc.RoomConnections("c2"))
	ok, err := svc.IsParticipant(ctx, "c1", "alice")
	req.NoError(err)
	req.True(ok)
}

func TestMembershipService_Legacy_Peer_Key(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	// Fallback disabled: no derived participants
	off := NewMembershipService(rdb, NewRooms(), false)
	members, err := off.ParticipantsOf(ctx, "alice-bob")
	req.NoError(err)
	req.Empty(members)

	// Fallback enabled: derived from the id
	on := NewMembershipService(rdb, NewRooms(), true)
	members, err = on.ParticipantsOf(ctx, "alice-bob")
	req.NoError(err)
	req.ElementsMatch([]string{"alice", "bob"}, members)

	// Recorded membership wins over the derived one
	req.NoError(on.Join(ctx, "alice-bob", "carol", ""))
	members, err = on.ParticipantsOf(ctx, "alice-bob")
	req.NoError(err)
	req.Equal([]string{"carol"}, members)
}

func TestParsePeerKey(t *testing.T) {
	cases := map[string][]string{
		"alice-bob":   {"alice", "bob"},
		"alice-alice": {"alice"},
		"group42":     nil,
		"-bob":        nil,
		"alice-":      nil,
		"a-b-c":       nil,
	}
	for id, want := range cases {
		t.Run(id, func(t *testing.T) {
			require.Equal(t, want, parsePeerKey(id))
		})
	}
}

func TestMembershipService_Store_Unavailable(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	svc := NewMembershipService(rdb, NewRooms(), false)
	mr.Close()

	err := svc.Join(context.Background(), "c1", "alice", "conn-a")
	req.ErrorIs(err, ErrStoreUnavailable)
	req.Empty(svc.RoomConnections("c1"))
}

package service

import (
	"Marquee/internal/pkg/consts"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestContactService_ContactsOf_DB_Fallback_Then_Cache(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	repo := &fakeFollowRepo{
		followers: map[string][]string{"alice": {"bob", "carol"}},
		following: map[string][]string{"alice": {"carol", "dave", "alice"}},
	}
	svc := NewContactService(rdb, repo, 0)
	ctx := context.Background()

	// When the cache is cold
	contacts, err := svc.ContactsOf(ctx, "alice")

	// Then the union comes from the database without self
	req.NoError(err)
	req.ElementsMatch([]string{"bob", "carol", "dave"}, contacts)
	req.Equal(2, repo.calls)

	// And the cache is filled in the background
	req.Eventually(func() bool {
		return mr.Exists(consts.UserFollowerKey+"alice") && mr.Exists(consts.UserFollowingKey+"alice")
	}, time.Second, 10*time.Millisecond)

	// When asked again the database is not hit
	contacts, err = svc.ContactsOf(ctx, "alice")
	req.NoError(err)
	req.ElementsMatch([]string{"bob", "carol", "dave"}, contacts)
	req.Equal(2, repo.calls)
}

func TestContactService_Cache_Keeps_DB_Order(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	repo := &fakeFollowRepo{followers: map[string][]string{"alice": {"newest", "middle", "oldest"}}}
	svc := NewContactService(rdb, repo, 10)

	_, err := svc.ContactsOf(context.Background(), "alice")
	req.NoError(err)

	key := consts.UserFollowerKey + "alice"
	req.Eventually(func() bool { return mr.Exists(key) }, time.Second, 10*time.Millisecond)

	ids, err := rdb.ZRevRange(context.Background(), key, 0, -1).Result()
	req.NoError(err)
	req.Equal([]string{"newest", "middle", "oldest"}, ids)
	req.Greater(mr.TTL(key), time.Duration(0))
}

func TestContactService_No_Contacts(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	svc := NewContactService(rdb, &fakeFollowRepo{}, 10)

	contacts, err := svc.ContactsOf(context.Background(), "loner")

	req.NoError(err)
	req.Empty(contacts)
}

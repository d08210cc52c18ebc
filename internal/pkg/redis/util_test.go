package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/stretchr/testify/require"
)

func TestDrainSet(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:            mr.Addr(),
		DisableIdentity: true,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	// Given a leftover processing copy and fresh members
	_, err := mr.SAdd("dirty:processing", "old")
	req.NoError(err)
	_, err = mr.SAdd("dirty", "new", "old")
	req.NoError(err)

	// When drained
	processingKey, members, err := DrainSet(ctx, rdb, "dirty")

	// Then both are returned and the source is emptied
	req.NoError(err)
	req.Equal("dirty:processing", processingKey)
	req.ElementsMatch([]string{"old", "new"}, members)
	req.False(mr.Exists("dirty"))

	// Draining an empty set yields the processing copy only
	req.NoError(rdb.Del(ctx, processingKey).Err())
	_, members, err = DrainSet(ctx, rdb, "dirty")
	req.NoError(err)
	req.Empty(members)
}

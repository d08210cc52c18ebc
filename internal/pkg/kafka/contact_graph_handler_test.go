package kafka

import (
	"Marquee/internal/pkg/consts"
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/stretchr/testify/require"
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

func TestContactGraphHandler_Invalidates_Both_Sides(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	h := NewContactGraphHandler(rdb)

	// Given cached lists for both users and an unrelated one
	for _, key := range []string{
		consts.UserFollowerKey + "bob",
		consts.UserFollowingKey + "alice",
		consts.UserFollowerKey + "carol",
	} {
		_, err := mr.ZAdd(key, 1, "someone")
		req.NoError(err)
	}

	// When canal reports alice followed bob
	msg := &sarama.ConsumerMessage{Value: []byte(`{
		"database":"marquee","table":"user_follows","type":"INSERT",
		"data":[{"follower_id":"alice","following_id":"bob"}]
	}`)}
	req.NoError(h.logic(context.Background(), msg))

	// Then only the two affected lists are dropped
	req.False(mr.Exists(consts.UserFollowerKey + "bob"))
	req.False(mr.Exists(consts.UserFollowingKey + "alice"))
	req.True(mr.Exists(consts.UserFollowerKey + "carol"))
}

func TestContactGraphHandler_Ignores_Other_Tables_And_DDL(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	h := NewContactGraphHandler(rdb)
	key := consts.UserFollowerKey + "bob"
	_, err := mr.ZAdd(key, 1, "alice")
	req.NoError(err)

	msgs := []string{
		`{"table":"users","type":"INSERT","data":[{"follower_id":"alice","following_id":"bob"}]}`,
		`{"table":"user_follows","type":"ALTER","isDdl":true,"data":[{"follower_id":"alice","following_id":"bob"}]}`,
		`{"table":"user_follows","type":"DELETE","data":[{"follower_id":"","following_id":"bob"}]}`,
		`garbage`,
	}
	for _, m := range msgs {
		req.NoError(h.logic(context.Background(), &sarama.ConsumerMessage{Value: []byte(m)}))
	}

	req.True(mr.Exists(key))
}

func TestColumnString(t *testing.T) {
	req := require.New(t)
	row := map[string]interface{}{"s": "42", "f": float64(42), "b": true}

	req.Equal("42", ColumnString(row, "s"))
	req.Equal("42", ColumnString(row, "f"))
	req.Equal("true", ColumnString(row, "b"))
	req.Equal("", ColumnString(row, "missing"))
}

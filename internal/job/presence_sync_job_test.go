package job

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/model"
	"Marquee/internal/pkg/consts"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redisv9.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redisv9.NewClient(&redisv9.Options{
		Addr:            mr.Addr(),
		DisableIdentity: true,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type fakePresenceReader struct {
	records map[string]*dto.PresenceRecord
}

func (f *fakePresenceReader) GetMany(_ context.Context, userIDs []string) (map[string]*dto.PresenceRecord, error) {
	out := make(map[string]*dto.PresenceRecord)
	for _, id := range userIDs {
		if rec, ok := f.records[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

type fakePresenceRepo struct {
	rows []*model.UserPresence
	err  error
}

func (f *fakePresenceRepo) UpsertPresences(_ context.Context, rows []*model.UserPresence) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func TestPresenceSyncJob_Sync(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	seen := time.UnixMilli(1_700_000_000_000)
	reader := &fakePresenceReader{records: map[string]*dto.PresenceRecord{
		"alice": {Status: consts.PresenceOnline, LastSeen: seen},
		"bob":   {Status: consts.PresenceOffline, LastSeen: seen},
	}}
	repo := &fakePresenceRepo{}
	job := NewPresenceSyncJob(rdb, reader, repo)

	// Given two dirty users, one of them without a record
	_, err := mr.SAdd(consts.PresenceDirtyKey, "alice", "bob", "ghost")
	req.NoError(err)

	// When the job runs
	req.NoError(job.Sync(context.Background()))

	// Then both known users are persisted and the queue is empty
	req.Len(repo.rows, 2)
	sort.Slice(repo.rows, func(i, j int) bool { return repo.rows[i].UserID < repo.rows[j].UserID })
	req.Equal("alice", repo.rows[0].UserID)
	req.Equal(consts.PresenceOnline, repo.rows[0].Status)
	req.Equal(consts.PresenceOffline, repo.rows[1].Status)

	req.False(mr.Exists(consts.PresenceDirtyKey))
	req.False(mr.Exists(consts.PresenceDirtyKey + ":processing"))
}

func TestPresenceSyncJob_Retries_After_Store_Failure(t *testing.T) {
	req := require.New(t)
	mr, rdb := newTestRedis(t)
	reader := &fakePresenceReader{records: map[string]*dto.PresenceRecord{
		"alice": {Status: consts.PresenceOnline},
		"bob":   {Status: consts.PresenceOnline},
	}}
	repo := &fakePresenceRepo{err: errors.New("mysql down")}
	job := NewPresenceSyncJob(rdb, reader, repo)

	_, err := mr.SAdd(consts.PresenceDirtyKey, "alice")
	req.NoError(err)

	// When the database write fails
	req.Error(job.Sync(context.Background()))

	// Then alice stays queued and is merged with newer dirty users next round
	_, err = mr.SAdd(consts.PresenceDirtyKey, "bob")
	req.NoError(err)
	repo.err = nil

	req.NoError(job.Sync(context.Background()))
	req.Len(repo.rows, 2)
}

func TestPresenceSyncJob_Nothing_To_Do(t *testing.T) {
	req := require.New(t)
	_, rdb := newTestRedis(t)
	repo := &fakePresenceRepo{}

	req.NoError(NewPresenceSyncJob(rdb, &fakePresenceReader{}, repo).Sync(context.Background()))
	req.Empty(repo.rows)
}

package job

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/model"
	"Marquee/internal/pkg/consts"
	"Marquee/internal/pkg/logger"
	"Marquee/internal/pkg/redis"
	"Marquee/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
)

// PresenceReader 批量读取在线状态
type PresenceReader interface {
	GetMany(ctx context.Context, userIDs []string) (map[string]*dto.PresenceRecord, error)
}

// PresenceSyncJob 把 presence:dirty 中的用户状态同步到 MySQL
type PresenceSyncJob struct {
	rdb          redisv9.UniversalClient
	presence     PresenceReader
	presenceRepo repository.UserPresenceRepo
	nowFn        func() time.Time
}

func NewPresenceSyncJob(rdb redisv9.UniversalClient, presence PresenceReader, presenceRepo repository.UserPresenceRepo) *PresenceSyncJob {
	return &PresenceSyncJob{rdb: rdb, presence: presence, presenceRepo: presenceRepo, nowFn: time.Now}
}

func (s *PresenceSyncJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-"+uuid.NewString())
	if err := s.Sync(ctx); err != nil {
		log.ErrorContext(ctx, "sync presence error", "err", err)
	}
}

// Sync 失败时保留 processing 集合，下一轮会与新的脏数据合并重试
func (s *PresenceSyncJob) Sync(ctx context.Context) error {
	processingKey, userIDs, err := redis.DrainSet(ctx, s.rdb, consts.PresenceDirtyKey)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	records, err := s.presence.GetMany(ctx, userIDs)
	if err != nil {
		return err
	}

	now := s.nowFn()
	rows := make([]*model.UserPresence, 0, len(records))
	for userID, rec := range records {
		rows = append(rows, &model.UserPresence{
			UserID:    userID,
			Status:    rec.Status,
			LastSeen:  rec.LastSeen,
			UpdatedAt: now,
		})
	}
	if err = s.presenceRepo.UpsertPresences(ctx, rows); err != nil {
		return err
	}

	if err = s.rdb.Del(ctx, processingKey).Err(); err != nil {
		log.ErrorContext(ctx, "delete presence processing set error", "err", err)
	}
	log.InfoContext(ctx, "sync presence success", "users", len(rows))
	return nil
}
